package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wellnesschat/backend/internal/admin"
	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/events"
	"wellnesschat/backend/internal/models"
	"wellnesschat/backend/internal/storage"

	"github.com/spf13/cobra"
)

var (
	cfg   config.Config
	store storage.Storage
)

var rootCmd = &cobra.Command{
	Use:   "wellness-admin",
	Short: "Operator tool for the wellness chat backend",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		switch cmd.Name() {
		case "watch", "stats", "end":
			// These talk to live services, not the archive.
			return nil
		}
		db, err := storage.OpenDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return err
		}
		svc := storage.NewStorageService(db)
		if err := svc.Migrate(); err != nil {
			return err
		}
		store = svc
		return nil
	},
}

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List archived rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		active, _ := cmd.Flags().GetBool("active")
		rooms, err := store.ListRooms(active)
		if err != nil {
			return err
		}
		fmt.Println(admin.RoomsTable(rooms))
		return nil
	},
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript <room-id>",
	Short: "Show the archived transcript of a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := store.GetRoomByID(args[0])
		if errors.Is(err, storage.ErrRoomNotFound) {
			return fmt.Errorf("room %s not found", args[0])
		}
		if err != nil {
			return err
		}
		history, err := store.GetChatHistory(room.RoomID)
		if err != nil {
			return err
		}
		fmt.Printf("Room %s: %s and %s\n", room.RoomID, room.User1ID, room.User2ID)
		fmt.Println(admin.TranscriptTable(history))
		return nil
	},
}

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "List counseling session bookings",
	RunE: func(cmd *cobra.Command, args []string) error {
		participant, _ := cmd.Flags().GetString("participant")
		bookings, err := store.ListBookings(participant)
		if err != nil {
			return err
		}
		fmt.Println(admin.BookingsTable(bookings))
		return nil
	},
}

var chatlogCmd = &cobra.Command{
	Use:   "chatlog",
	Short: "Show or export chatbot conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		participant, _ := cmd.Flags().GetString("participant")
		asCSV, _ := cmd.Flags().GetBool("csv")
		logs, err := store.ListChatLogs(participant)
		if err != nil {
			return err
		}
		if asCSV {
			return admin.WriteChatLogCSV(os.Stdout, logs)
		}
		fmt.Println(admin.ChatLogTable(logs))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [room-id]",
	Short: "Follow live room events over NATS",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NATSURL == "" {
			return errors.New("NATS_URL is not set")
		}
		nc, err := events.NewNATSClient(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer nc.Close()

		room := "*"
		if len(args) == 1 {
			room = args[0]
		}
		if err := nc.SubscribeRoom(room, func(roomID string, evt models.ChatEvent) {
			fmt.Println(admin.EventLine(roomID, evt))
		}); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Println(admin.MutedStyle.Render("Watching " + events.RoomSubject(room) + ", Ctrl+C to stop"))
		<-ctx.Done()
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show live hub counters from the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := serverClient(cmd).Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(admin.StatsTable(stats))
		return nil
	},
}

var endCmd = &cobra.Command{
	Use:   "end <room-id>",
	Short: "Close a live room; both members are told their peer left",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := serverClient(cmd).EndRoom(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Room %s ended\n", args[0])
		return nil
	},
}

func serverClient(cmd *cobra.Command) *admin.ServerClient {
	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		server = cfg.ServerURL
	}
	return admin.NewServerClient(server, cfg.AdminToken)
}

func init() {
	roomsCmd.Flags().Bool("active", false, "only rooms that are still open")
	bookingsCmd.Flags().String("participant", "", "filter by anonymous id")
	chatlogCmd.Flags().String("participant", "", "filter by anonymous id")
	chatlogCmd.Flags().Bool("csv", false, "write CSV to stdout")
	statsCmd.Flags().String("server", "", "server base URL (default SERVER_URL)")
	endCmd.Flags().String("server", "", "server base URL (default SERVER_URL)")

	rootCmd.AddCommand(roomsCmd, transcriptCmd, bookingsCmd, chatlogCmd, watchCmd, statsCmd, endCmd)
}

func main() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, admin.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
