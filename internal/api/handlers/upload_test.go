package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

func TestReadPart(t *testing.T) {
	tests := []struct {
		name       string
		part       string
		readErr    error
		wantStatus int
		wantMsg    string
	}{
		{name: "content", part: "leaf", wantStatus: http.StatusOK},
		{name: "empty", part: "", wantStatus: http.StatusBadRequest, wantMsg: "Empty file content"},
		{name: "read failure", readErr: errors.New("disk read"), wantStatus: http.StatusInternalServerError, wantMsg: "Failed to read uploaded file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data []byte
			var status int
			var msg string
			if tt.readErr != nil {
				data, status, msg = readPart(iotest.ErrReader(tt.readErr))
			} else {
				data, status, msg = readPart(strings.NewReader(tt.part))
			}

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, []byte(tt.part), data)
			} else {
				assert.Nil(t, data)
			}
		})
	}
}
