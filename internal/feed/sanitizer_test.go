package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer_PlainText(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "paragraph and break", in: "<p>A</p><br/>B", want: "A\nB"},
		{name: "entities", in: "<p>Sala &amp; cozinha&nbsp;integradas</p>", want: "Sala & cozinha integradas"},
		{name: "nested markup", in: `<div><strong>3</strong> quartos<br>2 <em>vagas</em></div>`, want: "3 quartos\n2 vagas"},
		{name: "script removed", in: "Casa<script>alert(1)</script>", want: "Casa"},
		{name: "plain text untouched", in: "Sem marcação", want: "Sem marcação"},
		{name: "uppercase tags", in: "<P>Um</P><BR>Dois", want: "Um\nDois"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.PlainText(tt.in))
		})
	}
}
