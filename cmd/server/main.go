package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/zzzaaa12/ai-vocabulary-review/app"
)

func main() {
	runtime, err := app.Build(app.Options{LoadDotEnv: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap failed: %v\n", err)
		os.Exit(1)
	}
	defer runtime.Close()

	logger := runtime.Logger
	server := runtime.Config.Server()
	addr := fmt.Sprintf("%s:%d", server.Host, server.Port)

	if server.HTTPSEnabled && server.CertFile != "" && server.KeyFile != "" {
		logger.Info("server_start", map[string]any{"addr": addr, "https": true})
		if err := http.ListenAndServeTLS(addr, server.CertFile, server.KeyFile, runtime.Handler); err != nil {
			logger.Error("server_failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		return
	}

	if server.HTTPSEnabled {
		logger.Warn("https_disabled_missing_cert", map[string]any{
			"cert_file": server.CertFile,
			"key_file":  server.KeyFile,
		})
	}

	logger.Info("server_start", map[string]any{"addr": addr, "https": false})
	if err := http.ListenAndServe(addr, runtime.Handler); err != nil {
		logger.Error("server_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
