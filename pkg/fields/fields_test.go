package fields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDatetime(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2023-05-01-19:30", "2023-05-01 19:30:00", true},
		{"  2023-05-01-19:30 ", "2023-05-01 19:30:00", true},
		{"2023-05-01 19:30:00", "2023-05-01 19:30:00", true},
		{"1998-03-14", "1998-03-14", true},
		{"sometime in spring", "sometime in spring", true},
		{"", "", false},
		{"   ", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDatetime(tt.in)
		assert.Equal(t, tt.wantOK, ok, "NormalizeDatetime(%q) ok", tt.in)
		assert.Equal(t, tt.want, got, "NormalizeDatetime(%q)", tt.in)
	}
}

func TestParseDatetime(t *testing.T) {
	got, err := ParseDatetime("2023-05-01 19:30:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 5, 1, 19, 30, 0, 0, time.UTC), got)

	got, err = ParseDatetime("1998-03-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1998, 3, 14, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDatetime("sometime in spring")
	assert.Error(t, err)
}

func TestSplitPerformer(t *testing.T) {
	name, nat := SplitPerformer("Jane Doe / USA")
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, "USA", nat)

	name, nat = SplitPerformer("Jane Doe")
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, "", nat)

	// Only the first slash separates; the remainder belongs to nationality.
	name, nat = SplitPerformer("Trio X / Austria/Hungary")
	assert.Equal(t, "Trio X", name)
	assert.Equal(t, "Austria/Hungary", nat)

	name, nat = SplitPerformer("")
	assert.Equal(t, "", name)
	assert.Equal(t, "", nat)
}

func TestSplitPerformerComposesUnicode(t *testing.T) {
	// A name typed with combining accents must match the precomposed form.
	decomposed := "Dvor\u030ca\u0301k"
	name, _ := SplitPerformer(decomposed)
	assert.Equal(t, "Dvo\u0159\u00e1k", name)
}

func TestParseItemOrder(t *testing.T) {
	require.NotNil(t, ParseItemOrder("Item 3"))
	assert.Equal(t, 3, *ParseItemOrder("Item 3"))
	assert.Equal(t, 12, *ParseItemOrder(" 12 "))
	assert.Nil(t, ParseItemOrder(""))
	assert.Nil(t, ParseItemOrder("Item "))
	assert.Nil(t, ParseItemOrder("Item three"))
	assert.Nil(t, ParseItemOrder("Item 0"))
}

func TestParseIntervalFlag(t *testing.T) {
	got := ParseIntervalFlag("Y")
	require.NotNil(t, got)
	assert.True(t, *got)

	assert.Nil(t, ParseIntervalFlag("N"))
	assert.Nil(t, ParseIntervalFlag("y"))
	assert.Nil(t, ParseIntervalFlag(""))
}

func TestCanonicalHeader(t *testing.T) {
	assert.Equal(t, "Year/Date/Time", CanonicalHeader("\uFEFFYear/Date/Time"))
	assert.Equal(t, "Interval Y/N", CanonicalHeader("Interval  Y/N"))
	assert.Equal(t, "Performer/ Nationality", CanonicalHeader(" Performer/ Nationality "))
}
