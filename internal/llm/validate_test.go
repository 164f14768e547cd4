package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postVariantsValidator(t *testing.T) *SchemaValidator {
	t.Helper()
	v, err := NewSchemaValidator(&OutputSchema{
		Name:   PostVariantsSchemaName,
		Schema: GetPostVariantsSchema(),
	})
	require.NoError(t, err)
	return v
}

func TestSchemaValidator_AcceptsThreePosts(t *testing.T) {
	v := postVariantsValidator(t)

	raw := `{"posts":[
		{"content":"a","variant":1,"approach":"Wistful memory reflection"},
		{"content":"b","variant":null,"approach":null},
		{"content":"c","variant":3,"approach":"Bittersweet musical memory"}
	]}`
	assert.NoError(t, v.Validate(raw))
}

func TestSchemaValidator_RejectsWrongCount(t *testing.T) {
	v := postVariantsValidator(t)

	raw := `{"posts":[{"content":"a","variant":1,"approach":null},{"content":"b","variant":2,"approach":null}]}`
	assert.Error(t, v.Validate(raw))
}

func TestSchemaValidator_RejectsLongContent(t *testing.T) {
	v := postVariantsValidator(t)

	long := strings.Repeat("x", 281)
	raw := `{"posts":[{"content":"` + long + `","variant":1,"approach":null},` +
		`{"content":"b","variant":2,"approach":null},{"content":"c","variant":3,"approach":null}]}`
	assert.Error(t, v.Validate(raw))
}

func TestSchemaValidator_ContentLimitCountsRunes(t *testing.T) {
	v := postVariantsValidator(t)

	accented := strings.Repeat("é", 280)
	raw := `{"posts":[{"content":"` + accented + `","variant":1,"approach":null},` +
		`{"content":"b","variant":2,"approach":null},{"content":"c","variant":3,"approach":null}]}`
	assert.NoError(t, v.Validate(raw))
}

func TestSchemaValidator_RejectsNonJSON(t *testing.T) {
	v := postVariantsValidator(t)

	err := v.Validate("VARIANT 1: a\nVARIANT 2: b\nVARIANT 3: c")
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestSchemaValidator_RejectsMissingContent(t *testing.T) {
	v := postVariantsValidator(t)

	raw := `{"posts":[{"variant":1,"approach":null},{"content":"b","variant":2,"approach":null},{"content":"c","variant":3,"approach":null}]}`
	assert.Error(t, v.Validate(raw))
}
