package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestStatusPrintsLoopHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"intake":{"running":true,"last_tick":"2026-07-31T00:00:00Z"}}`))
	}))
	defer srv.Close()

	viper.Reset()
	viper.Set("admin-addr", strings.TrimPrefix(srv.URL, "http://"))
	defer viper.Reset()

	err := statusCmd.RunE(statusCmd, nil)
	assert.NoError(t, err)
}

func TestStatusErrorsWhenUnreachable(t *testing.T) {
	viper.Reset()
	viper.Set("admin-addr", "127.0.0.1:1")
	defer viper.Reset()

	err := statusCmd.RunE(statusCmd, nil)
	assert.Error(t, err)
}
