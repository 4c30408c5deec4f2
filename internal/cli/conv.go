package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/toolbrain/pkg/models"
)

var convCmd = &cobra.Command{
	Use:   "conv",
	Short: "Manage durable conversations",
	Long: `Manage durable conversations: create, list, show, append messages,
link artifacts, and close.`,
}

var (
	convCreateOwner string
	convCreateTags  []string
)

var convCreateCmd = &cobra.Command{
	Use:   "create <topic>",
	Short: "Start a new conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConversationStore == nil {
			return fmt.Errorf("conversation store not initialized")
		}

		conv, err := ConversationStore.Create(args[0], convCreateOwner, convCreateTags)
		if err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}

		fmt.Printf("Created conversation %s\n", conv.ID)
		fmt.Printf("  Topic: %s\n", conv.Topic)
		fmt.Printf("  Owner: %s\n", conv.Owner)
		return nil
	},
}

var (
	convListOwner   string
	convListSurface string
	convListStatus  string
)

var convListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConversationStore == nil {
			return fmt.Errorf("conversation store not initialized")
		}

		entries, err := ConversationStore.List(models.ConversationFilter{
			Owner:   convListOwner,
			Surface: convListSurface,
			Status:  models.ParseStatusFilter(convListStatus),
		})
		if err != nil {
			return fmt.Errorf("listing conversations: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No conversations found.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%-44s %-8s %3d msgs  %s  %s\n",
				e.ID, e.Status, e.MessageCount,
				e.UpdatedAt.Format("2006-01-02 15:04"), e.Topic)
		}
		return nil
	},
}

var convShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show a conversation in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConversationStore == nil {
			return fmt.Errorf("conversation store not initialized")
		}

		conv, err := ConversationStore.Get(args[0])
		if err != nil {
			return fmt.Errorf("loading conversation: %w", err)
		}

		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting conversation: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

var (
	convAppendRole    string
	convAppendSurface string
)

var convAppendCmd = &cobra.Command{
	Use:   "append <conversation-id> <content...>",
	Short: "Append a message to a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConversationStore == nil {
			return fmt.Errorf("conversation store not initialized")
		}

		conv, err := ConversationStore.AppendMessage(args[0], models.Message{
			Role:    convAppendRole,
			Content: strings.Join(args[1:], " "),
			Surface: convAppendSurface,
		})
		if err != nil {
			return fmt.Errorf("appending message: %w", err)
		}

		fmt.Printf("Appended to %s (%d messages)\n", conv.ID, conv.MessageCount)
		return nil
	},
}

var (
	convLinkType       string
	convLinkTitle      string
	convLinkConfidence float64
)

var convLinkCmd = &cobra.Command{
	Use:   "link <conversation-id> <artifact-id>",
	Short: "Link an artifact to a conversation",
	Long: `Link an artifact (ticket, doc, commit) to a conversation.
Linking the same artifact ID twice is a no-op.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConversationStore == nil {
			return fmt.Errorf("conversation store not initialized")
		}

		conv, err := ConversationStore.LinkArtifact(args[0], models.ArtifactLink{
			Type:       convLinkType,
			ID:         args[1],
			Title:      convLinkTitle,
			Confidence: convLinkConfidence,
		})
		if err != nil {
			return fmt.Errorf("linking artifact: %w", err)
		}

		fmt.Printf("Linked %s to %s (%d artifacts)\n", args[1], conv.ID, len(conv.Artifacts))
		return nil
	},
}

var convCloseCmd = &cobra.Command{
	Use:   "close <conversation-id>",
	Short: "Close a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConversationStore == nil {
			return fmt.Errorf("conversation store not initialized")
		}

		conv, err := ConversationStore.Close(args[0])
		if err != nil {
			return fmt.Errorf("closing conversation: %w", err)
		}

		fmt.Printf("Closed %s\n", conv.ID)
		return nil
	},
}

func init() {
	convCreateCmd.Flags().StringVar(&convCreateOwner, "owner", "", "conversation owner (defaults to configured owner)")
	convCreateCmd.Flags().StringSliceVar(&convCreateTags, "tags", nil, "tags for the conversation")

	convListCmd.Flags().StringVar(&convListOwner, "owner", "", "filter by owner")
	convListCmd.Flags().StringVar(&convListSurface, "surface", "", "filter by surface")
	convListCmd.Flags().StringVar(&convListStatus, "status", "", "filter by status: active (default), closed, or all")

	convAppendCmd.Flags().StringVar(&convAppendRole, "role", models.RoleUser, "message role (user or assistant)")
	convAppendCmd.Flags().StringVar(&convAppendSurface, "surface", "cli", "surface the message came from")

	convLinkCmd.Flags().StringVar(&convLinkType, "type", "doc", "artifact type (ticket, doc, commit)")
	convLinkCmd.Flags().StringVar(&convLinkTitle, "title", "", "artifact title")
	convLinkCmd.Flags().Float64Var(&convLinkConfidence, "confidence", 1.0, "link confidence in [0,1]")

	convCmd.AddCommand(convCreateCmd)
	convCmd.AddCommand(convListCmd)
	convCmd.AddCommand(convShowCmd)
	convCmd.AddCommand(convAppendCmd)
	convCmd.AddCommand(convLinkCmd)
	convCmd.AddCommand(convCloseCmd)
	rootCmd.AddCommand(convCmd)
}
