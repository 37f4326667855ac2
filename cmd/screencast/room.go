package main

import (
	"fmt"
	"os"
	"time"

	"screencast/backend/internal/client"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var flagDevice string

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Manage rooms on a running server",
}

var roomCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a room hosted by this device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := client.NewAPI(flagServer).CreateRoom(cmd.Context(), flagDevice)
		if err != nil {
			return err
		}
		fmt.Printf("Room %s created (host device %s)\n", room.Code, room.HostDeviceID)
		return nil
	},
}

var roomJoinCmd = &cobra.Command{
	Use:   "join <code>",
	Short: "Join a room as a viewer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDevice == "" {
			return fmt.Errorf("--device is required")
		}
		room, p, err := client.NewAPI(flagServer).JoinRoom(cmd.Context(), args[0], flagDevice)
		if err != nil {
			return err
		}
		fmt.Printf("Joined room %s as %s (participant %s)\n", room.Code, p.Role, p.ID)
		return nil
	},
}

var roomParticipantsCmd = &cobra.Command{
	Use:     "participants <code>",
	Aliases: []string{"ls"},
	Short:   "List the participants of a room",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		participants, err := client.NewAPI(flagServer).Participants(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"#", "Device", "Role", "Connected", "Joined", "Participant ID"})
		for i, p := range participants {
			t.AppendRow(table.Row{i + 1, p.DeviceID, p.Role, p.Connected, p.JoinedAt.Local().Format(time.TimeOnly), p.ID})
		}
		t.AppendFooter(table.Row{"", "Total", len(participants)})
		t.Render()
		return nil
	},
}

var roomLeaveCmd = &cobra.Command{
	Use:   "leave <code>",
	Short: "Leave a room; the host leaving closes it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDevice == "" {
			return fmt.Errorf("--device is required")
		}
		if err := client.NewAPI(flagServer).LeaveRoom(cmd.Context(), args[0], flagDevice); err != nil {
			return err
		}
		fmt.Printf("Left room %s\n", args[0])
		return nil
	},
}

func init() {
	roomCmd.PersistentFlags().StringVar(&flagDevice, "device", "", "device id")
	roomCmd.AddCommand(roomCreateCmd, roomJoinCmd, roomParticipantsCmd, roomLeaveCmd)
}
