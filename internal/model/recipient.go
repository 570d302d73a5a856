package model

// RecipientContext is the flat substitution input for template rendering.
type RecipientContext map[string]string

// Merge returns a new context holding c overlaid with extra. Keys in extra
// win.
func (c RecipientContext) Merge(extra map[string]string) RecipientContext {
	out := make(RecipientContext, len(c)+len(extra))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
