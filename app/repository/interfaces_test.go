package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateRecordNotFound(t *testing.T) {
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound)), ErrNotFound)

	other := errors.New("deadlock")
	assert.Equal(t, other, translate(other))
	assert.Nil(t, translate(nil))
}
