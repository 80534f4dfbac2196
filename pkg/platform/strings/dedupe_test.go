package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		trim  []string
		lower []string
	}{
		{name: "nil stays nil", in: nil, trim: nil, lower: nil},
		{name: "empty stays empty", in: []string{}, trim: []string{}, lower: []string{}},
		{
			name:  "keyword list from an upstream record",
			in:    []string{" 주거 ", "월세", "주거", "", "  ", "청년"},
			trim:  []string{"주거", "월세", "청년"},
			lower: []string{"주거", "월세", "청년"},
		},
		{
			name:  "case only folds in the lower variant",
			in:    []string{"LH", "lh", " Lh "},
			trim:  []string{"LH", "lh", "Lh"},
			lower: []string{"lh"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.trim, DedupeAndTrim(tt.in))
			assert.Equal(t, tt.lower, DedupeAndTrimLower(tt.in))
		})
	}
}

func TestSplitTerms(t *testing.T) {
	assert.Nil(t, SplitTerms("   "))
	assert.Equal(t, []string{"임신", "출산", "영유아"}, SplitTerms("임신·출산, 영유아 | 영유아"))
	assert.Equal(t, []string{"보육", "교육"}, SplitTerms("보육/교육\n"))
	assert.Equal(t, []string{"저소득", "한부모"}, SplitTerms("저소득;한부모\t"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Youth  Housing Support", "housing support"))
	assert.True(t, ContainsFold("아동수당 지급", "아동수당"))
	assert.False(t, ContainsFold("아동수당", "기초연금"))
	assert.True(t, ContainsFold("anything", ""))
}
