package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-sdk-go/roomchat/rest"
)

func roomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List rooms that currently have users",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			rooms, err := rest.NewClient(server).ListRooms(cmd.Context())
			if err != nil {
				return fmt.Errorf("list rooms: %w", err)
			}
			if len(rooms) == 0 {
				fmt.Println("No active rooms")
				return nil
			}
			for _, r := range rooms {
				fmt.Println(r)
			}
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetString("server")
			h, err := rest.NewClient(server).Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}
			fmt.Printf("status: %s, active rooms: %d\n", h.Status, h.ActiveRooms)
			if !h.Healthy() {
				return fmt.Errorf("server reports %q", h.Status)
			}
			return nil
		},
	}
}
