package dispatch

// GeneralChannel keys errors that are not tied to one channel.
const GeneralChannel = "general"

// ChannelError is one failure reported in an Outcome.
type ChannelError struct {
	Channel string `json:"channel"`
	Error   string `json:"error"`
}

// Outcome is the aggregated result of one dispatch.
type Outcome struct {
	Success          bool           `json:"success"`
	NotifiedChannels []string       `json:"notifiedChannels"`
	Errors           []ChannelError `json:"errors"`
	TotalJobsCreated int            `json:"totalJobsCreated"`
}

func newOutcome() *Outcome {
	return &Outcome{
		NotifiedChannels: []string{},
		Errors:           []ChannelError{},
	}
}

func failed(msg string) *Outcome {
	o := newOutcome()
	o.addError(GeneralChannel, msg)
	return o
}

func (o *Outcome) addError(channel, msg string) {
	o.Errors = append(o.Errors, ChannelError{Channel: channel, Error: msg})
}
