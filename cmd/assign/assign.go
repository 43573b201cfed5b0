// Package assign implements the assign subcommand: manage a session's
// roster assignments and pod overrides.
package assign

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pitchpod/pitchpod-go/internal/conf"
	"github.com/pitchpod/pitchpod-go/internal/datastore"
	"github.com/pitchpod/pitchpod-go/internal/ingest"
	"github.com/pitchpod/pitchpod-go/internal/logging"
	"github.com/pitchpod/pitchpod-go/internal/roster"
)

// Command creates the assign command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		assignIDs   []string
		unassignIDs []string
		swaps       []string
		disables    []string
		clears      []string
		list        bool
	)

	cmd := &cobra.Command{
		Use:   "assign [session-id]",
		Short: "Manage a session's roster and pod overrides",
		Long: `Assign or unassign players for a session, swap a pod to a different
player, disable a pod entirely or clear an override back to the default
mapping. With --list, print the session's effective assignments.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(settings, args[0], options{
				assign:   assignIDs,
				unassign: unassignIDs,
				swaps:    swaps,
				disables: disables,
				clears:   clears,
				list:     list,
			})
		},
	}

	cmd.Flags().StringSliceVar(&assignIDs, "player", nil, "Player id to assign to the session (repeatable)")
	cmd.Flags().StringSliceVar(&unassignIDs, "unassign", nil, "Player id to remove from the session (repeatable)")
	cmd.Flags().StringSliceVar(&swaps, "swap", nil, "Pod override POD=PLAYER (repeatable)")
	cmd.Flags().StringSliceVar(&disables, "disable", nil, "Pod serial to disable for the session (repeatable)")
	cmd.Flags().StringSliceVar(&clears, "clear", nil, "Pod serial whose override to remove (repeatable)")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "Print the session's effective assignments")

	return cmd
}

type options struct {
	assign   []string
	unassign []string
	swaps    []string
	disables []string
	clears   []string
	list     bool
}

func runAssign(settings *conf.Settings, sessionID string, opts options) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no datastore enabled in settings")
	}
	if err := store.Open(); err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("Failed to close datastore", "error", err)
		}
	}()

	provider := roster.NewCachedProvider(store, settings.RosterCacheTTL())

	if len(opts.assign) > 0 || len(opts.unassign) > 0 {
		if err := saveAssignments(provider, sessionID, opts.assign, opts.unassign); err != nil {
			return err
		}
	}

	if len(opts.swaps) > 0 || len(opts.disables) > 0 || len(opts.clears) > 0 {
		if err := saveOverrides(provider, sessionID, opts); err != nil {
			return err
		}
	}

	if opts.list {
		return printAssignments(provider, sessionID)
	}
	return nil
}

// saveAssignments rebuilds the session's assignment set from the current
// state plus the requested changes and persists it wholesale.
func saveAssignments(provider *roster.CachedProvider, sessionID string, assign, unassign []string) error {
	current, err := provider.AssignedPlayers(sessionID)
	if err != nil {
		return err
	}

	assigned := make(map[string]bool, len(current))
	for i := range current {
		assigned[current[i].PlayerID] = current[i].Assigned
	}
	for _, id := range assign {
		assigned[id] = true
	}
	for _, id := range unassign {
		assigned[id] = false
	}

	return provider.SaveAssignments(sessionID, assigned)
}

// saveOverrides applies swap/disable/clear changes through a draft and
// commits the result as the session's override set.
func saveOverrides(provider *roster.CachedProvider, sessionID string, opts options) error {
	current, err := provider.PodOverrides(sessionID)
	if err != nil {
		return err
	}

	draft := ingest.NewOverrideDraft(sessionID, current)
	for _, swap := range opts.swaps {
		pod, player, ok := strings.Cut(swap, "=")
		if !ok || pod == "" || player == "" {
			return fmt.Errorf("invalid --swap value %q, expected POD=PLAYER", swap)
		}
		draft.Swap(pod, player)
	}
	for _, pod := range opts.disables {
		draft.Disable(pod)
	}
	for _, pod := range opts.clears {
		draft.Clear(pod)
	}

	return provider.SaveOverrides(sessionID, draft.Overrides())
}

func printAssignments(provider *roster.CachedProvider, sessionID string) error {
	assigned, err := provider.AssignedPlayers(sessionID)
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %-20s %-4s %-10s %s\n", "PLAYER", "NAME", "NO", "POD", "STATUS")
	for i := range assigned {
		p := &assigned[i]
		status := "default"
		switch {
		case !p.Assigned:
			status = "unassigned"
		case p.PodDisabled:
			status = "disabled"
		case p.Swapped:
			status = "swapped"
		}
		fmt.Printf("%-12s %-20s %-4d %-10s %s\n",
			p.PlayerID, p.PlayerName, p.JerseyNumber, p.EffectivePodSerial, status)
	}
	return nil
}
