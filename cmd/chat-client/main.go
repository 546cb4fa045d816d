package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/labstack/gommon/log"
	"github.com/sethvargo/go-envconfig"

	"github.com/DemioMAD/demiochatplus/internal/feed"
	"github.com/DemioMAD/demiochatplus/pkg/client"
)

type Config struct {
	ServerURL string `env:"SERVER_URL,default=http://localhost:8080"`
}

// backendAdapter narrows the concrete client to the feed core's interface.
type backendAdapter struct {
	*client.Client
}

func (b backendAdapter) SubscribeInserts(ctx context.Context) (feed.Subscription, error) {
	sub, err := b.Client.SubscribeInserts(ctx)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func main() {
	config := Config{}
	if err := envconfig.Process(context.Background(), &config); err != nil {
		log.Fatalf("parsing env vars: %+v", err)
	}

	backendClient := client.New(config.ServerURL)

	program := tea.NewProgram(newApp(backendClient), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("running client: %+v", err)
	}
}
