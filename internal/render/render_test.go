package render

import (
	"testing"

	"github.com/lalithlochan/courier/internal/model"
)

func TestRender(t *testing.T) {
	ctx := model.RecipientContext{
		"fullName":    "John Doe",
		"companyName": "TechCorp Solutions",
		"empty":       "",
	}

	tests := []struct {
		name        string
		detail      model.ChannelDetail
		wantSubject string
		wantContent string
	}{
		{
			name:        "substitutes known keys",
			detail:      model.ChannelDetail{Subject: "Hi {{fullName}}", Body: "<p>{{fullName}} at {{companyName}}</p>"},
			wantSubject: "Hi John Doe",
			wantContent: "<p>John Doe at TechCorp Solutions</p>",
		},
		{
			name:        "missing key kept verbatim",
			detail:      model.ChannelDetail{Body: "You have {{leaveBalance}} days"},
			wantSubject: "",
			wantContent: "You have {{leaveBalance}} days",
		},
		{
			name:        "repeated placeholder",
			detail:      model.ChannelDetail{Body: "{{fullName}}, {{fullName}}!"},
			wantContent: "John Doe, John Doe!",
		},
		{
			name:        "empty value still substitutes",
			detail:      model.ChannelDetail{Body: "[{{empty}}]"},
			wantContent: "[]",
		},
		{
			name:        "invalid identifiers untouched",
			detail:      model.ChannelDetail{Body: "{{ fullName }} {{full-name}} {fullName}"},
			wantContent: "{{ fullName }} {{full-name}} {fullName}",
		},
		{
			name: "missing subject and body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.detail, ctx)
			if got.Subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", got.Subject, tt.wantSubject)
			}
			if got.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", got.Content, tt.wantContent)
			}
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	detail := model.ChannelDetail{Subject: "{{a}}{{b}}", Body: "{{b}}-{{c}}"}
	ctx := model.RecipientContext{"a": "1", "b": "2"}

	first := Render(detail, ctx)
	second := Render(detail, ctx)
	if first != second {
		t.Fatalf("render not deterministic: %+v vs %+v", first, second)
	}
	if first.Content != "2-{{c}}" {
		t.Errorf("unexpected content %q", first.Content)
	}
}

func TestRender_NilContext(t *testing.T) {
	got := Render(model.ChannelDetail{Body: "Dear {{fullName}}"}, nil)
	if got.Content != "Dear {{fullName}}" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{{fullName}} {{x}} {{fullName}}")
	if len(got) != 2 || got[0] != "fullName" || got[1] != "x" {
		t.Errorf("Placeholders = %v", got)
	}
}
