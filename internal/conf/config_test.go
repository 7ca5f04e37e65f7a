package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edusync/learnlog/internal/errors"
)

func TestValidateSettings(t *testing.T) {
	valid := &Settings{}
	valid.Output.SQLite.Enabled = true
	valid.Migration.PageSize = 750
	assert.NoError(t, validateSettings(valid))

	both := &Settings{}
	both.Output.SQLite.Enabled = true
	both.Output.MySQL.Enabled = true
	err := validateSettings(both)
	assert.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	negative := &Settings{}
	negative.Migration.PageSize = -1
	err = validateSettings(negative)
	assert.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
