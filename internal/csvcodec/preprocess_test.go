package csvcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]string
	}{
		{
			name: "drops empty and whitespace-only lines",
			text: "a,b\n\n   \nc,d\n",
			want: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name: "strips carriage returns",
			text: "a,b\r\nc\r\n",
			want: [][]string{{"a", "b"}, {"c"}},
		},
		{
			name: "no quoting support",
			text: `"x,y",z`,
			want: [][]string{{`"x`, `y"`, "z"}},
		},
		{
			name: "keeps blank cells",
			text: ",a,,",
			want: [][]string{{"", "a", "", ""}},
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text))
		})
	}
}

func TestNormalize(t *testing.T) {
	rows := Normalize([][]string{{"  Item Name ", "TEMPLATE"}, {" Dog\t"}})
	assert.Equal(t, [][]string{{"item name", "template"}, {"dog"}}, rows)
}

func TestColumnsOf(t *testing.T) {
	assert.Equal(t, []string{"item name", "template", "description", "color"},
		ColumnsOf("Item Name, Template ,Description,COLOR\ndog,,,brown"))
	assert.Nil(t, ColumnsOf("\n\n"))
}
