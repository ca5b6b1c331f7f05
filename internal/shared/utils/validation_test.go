package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateToolID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"service tool", "process.launch", false},
		{"dashes", "my-service.do_it", false},
		{"empty", "", true},
		{"spaces", "process launch", true},
		{"slash", "process/launch", true},
		{"nul", "process.\x00", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToolID(tt.id, "tool_id", true)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.NoError(t, ValidateToolID("", "tool_id", false))
}

func TestValidateJSONDepth(t *testing.T) {
	shallow := map[string]interface{}{"args": []interface{}{"echo", "hi"}}
	assert.NoError(t, ValidateJSONDepth(shallow, 2))

	var deep interface{} = "leaf"
	for i := 0; i < 5; i++ {
		deep = []interface{}{deep}
	}
	assert.Error(t, ValidateJSONDepth(deep, 3))
	assert.NoError(t, ValidateJSONDepth(deep, 5))
}

func TestValidateSize(t *testing.T) {
	assert.NoError(t, ValidateSize(make([]byte, 10), 10))
	assert.Error(t, ValidateSize(make([]byte, 11), 10))
}
