package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/ops-board/internal/model"
)

func TestNormalizeLines(t *testing.T) {
	raw := "  - Write launch post  \n\n* Call printer\n• Refresh listing\n· Ask legal\n" +
		"1) Book photographer\n2. Send brief\n-no space bullet\n   \n3.5 liters of paint\n- \n"

	got := NormalizeLines(raw)

	assert.Equal(t, []string{
		"Write launch post",
		"Call printer",
		"Refresh listing",
		"Ask legal",
		"Book photographer",
		"Send brief",
		"-no space bullet",
		"3.5 liters of paint",
		"-",
	}, got)
}

func TestNormalizeLines_PrefixRulesApplyInOrder(t *testing.T) {
	assert.Equal(t, []string{"nested"}, NormalizeLines("- 1) 1. nested"))
	assert.Equal(t, []string{"1) kept"}, NormalizeLines("1. 1) kept"))
	assert.Empty(t, NormalizeLines("\n \n\t"))
}

func TestMergeDuplicates(t *testing.T) {
	got := MergeDuplicates([]string{
		"Call  the printer",
		"call the PRINTER",
		"Send brief",
		" Call the printer ",
		"Send brief to vendor",
	})

	assert.Equal(t, []string{"Call  the printer", "Send brief", "Send brief to vendor"}, got)
}

func TestPrepare(t *testing.T) {
	assert.Equal(t, []string{"Write post"}, Prepare("- Write post\n1) write  POST\n"))
}

func TestCondense(t *testing.T) {
	assert.Equal(t, "a b c", Condense(" a\n\n b\tc ", 0))
	assert.Equal(t, "abc…", Condense("abcdef", 3))
	assert.Equal(t, "abc", Condense("abc", 3))
}

func TestExtractLinks(t *testing.T) {
	text := "Brief at https://docs.example.com/brief?id=1, proof (http://print.example.net/p/2). " +
		"Again https://docs.example.com/brief?id=1. Not a link: ftp://x.y"

	got := ExtractLinks(text)

	assert.Equal(t, []model.Link{
		{Title: "docs.example.com", URL: "https://docs.example.com/brief?id=1"},
		{Title: "print.example.net", URL: "http://print.example.net/p/2"},
	}, got)
	assert.Nil(t, ExtractLinks("no links here"))
}
