package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder_Build(t *testing.T) {
	base := NewStd("connection refused")
	err := New(base).
		Component("datastore").
		Category(CategoryDatabase).
		Context("table", "content_summary_logs").
		Build()

	assert.Equal(t, "connection refused", err.Error())
	assert.Equal(t, "datastore", err.Component)
	assert.Equal(t, CategoryDatabase, err.Category)
	assert.Equal(t, "content_summary_logs", err.Context["table"])
	assert.True(t, Is(err, base))
}

func TestErrorBuilder_DefaultsToUnknownComponent(t *testing.T) {
	err := Newf("something went wrong").Build()
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
}

func TestIsCategory(t *testing.T) {
	err := Newf("no attempts for exam log").Category(CategoryValidation).Build()

	assert.True(t, IsCategory(err, CategoryValidation))
	assert.False(t, IsCategory(err, CategoryDatabase))
	assert.False(t, IsCategory(NewStd("plain"), CategoryValidation))
}

func TestIsNotFound(t *testing.T) {
	err := Newf("session log missing").Category(CategoryNotFound).Build()
	assert.True(t, IsNotFound(err))
}

func TestGetContext_ReturnsCopy(t *testing.T) {
	err := Newf("boom").Context("page", 3).Build()
	ctx := err.GetContext()
	require.NotNil(t, ctx)
	ctx["page"] = 99
	assert.Equal(t, 3, err.Context["page"])
}
