package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
	"order-board/internal/config"
)

type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase.NewClient: %w", err)
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}
