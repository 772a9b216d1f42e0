package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"tg-unibans/internal/config"
	"tg-unibans/internal/logger"
)

const defaultWebhookPath = "/webhook"

// WebhookServer represents a webhook HTTP server
type WebhookServer struct {
	server   *http.Server
	certFile string
	keyFile  string
}

// Start starts the webhook server
func (ws *WebhookServer) Start() error {
	logger.Infof("Starting HTTP server on %s", ws.server.Addr)

	if ws.certFile != "" && ws.keyFile != "" {
		logger.Infof("Using TLS with cert: %s, key: %s", ws.certFile, ws.keyFile)
		return ws.server.ListenAndServeTLS(ws.certFile, ws.keyFile)
	}

	logger.Warningf("Running without TLS. Make sure you have a HTTPS proxy in front of this server")
	return ws.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ws *WebhookServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}

// webhookPath validates the endpoint and returns the path updates are
// posted to
func webhookPath(wh config.WebhookConfig) (string, error) {
	if (wh.CertFile == "" || wh.KeyFile == "") && !strings.HasPrefix(wh.Endpoint, "https://") {
		return "", fmt.Errorf("HTTPS configuration required: set cert_file and key_file in config or use a HTTPS proxy")
	}

	parsed, err := url.Parse(wh.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if parsed.Path == "" {
		logger.Infof("No path specified in webhook endpoint, using default path: %s", defaultWebhookPath)
		return defaultWebhookPath, nil
	}
	return parsed.Path, nil
}

// SetupWebhook registers the webhook with Telegram and prepares the server
// that receives it
func SetupWebhook(ctx context.Context, bot *telego.Bot, wh config.WebhookConfig, secretToken string) (*th.BotHandler, *WebhookServer, error) {
	path, err := webhookPath(wh)
	if err != nil {
		return nil, nil, err
	}
	listenPort := wh.ListenPort
	if listenPort == "" {
		listenPort = "8443"
	}

	logger.Infof("Setting webhook to: %s", wh.Endpoint)
	err = bot.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            wh.Endpoint,
		AllowedUpdates: allowedUpdates,
		SecretToken:    secretToken,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set webhook: %w", err)
	}

	if info, err := bot.GetWebhookInfo(ctx); err != nil {
		logger.Warningf("Failed to get webhook info: %v", err)
	} else {
		logger.Infof("Webhook info: URL=%s, PendingUpdateCount=%d, AllowedUpdates=%v",
			info.URL, info.PendingUpdateCount, info.AllowedUpdates)
	}

	mux := http.NewServeMux()
	if wh.DebugPath != "" {
		mux.HandleFunc(wh.DebugPath, func(w http.ResponseWriter, r *http.Request) {
			logger.Infof("Debug endpoint accessed: %s %s", r.Method, r.URL.Path)

			username := ""
			if me, err := bot.GetMe(r.Context()); err == nil {
				username = me.Username
			}
			info, err := bot.GetWebhookInfo(r.Context())

			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(debugStatus(username, wh.Endpoint, info, err)))
		})
	}

	updates, err := bot.UpdatesViaWebhook(ctx, telego.WebhookHTTPServeMux(mux, path, secretToken))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get updates channel: %w", err)
	}

	bh, err := th.NewBotHandler(bot, updates)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create bot handler: %w", err)
	}

	return bh, &WebhookServer{
		server: &http.Server{
			Addr:              "0.0.0.0:" + listenPort,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		certFile: wh.CertFile,
		keyFile:  wh.KeyFile,
	}, nil
}

// debugStatus renders the plain-text page of the debug endpoint
func debugStatus(username, endpoint string, info *telego.WebhookInfo, infoErr error) string {
	var b strings.Builder
	b.WriteString("UniBans webhook server is running\n\n")
	if username != "" {
		fmt.Fprintf(&b, "Bot username: %s\n", username)
	}
	fmt.Fprintf(&b, "Webhook endpoint: %s\n", endpoint)

	if infoErr != nil || info == nil {
		fmt.Fprintf(&b, "\nError getting webhook info: %v", infoErr)
		return b.String()
	}

	b.WriteString("\nWebhook Info:\n")
	fmt.Fprintf(&b, "URL: %s\n", info.URL)
	fmt.Fprintf(&b, "Custom Certificate: %v\n", info.HasCustomCertificate)
	fmt.Fprintf(&b, "Pending Updates: %d\n", info.PendingUpdateCount)
	if info.LastErrorDate > 0 {
		errorTime := time.Unix(int64(info.LastErrorDate), 0).UTC()
		fmt.Fprintf(&b, "Last Error: [%s] %s\n", errorTime.Format("2006-01-02 15:04:05"), info.LastErrorMessage)
	}
	return b.String()
}
