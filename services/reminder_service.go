package services

import (
	"context"
	"fmt"
	"log"

	"github.com/aaryan/garment-styles-api/models"
)

// DirectoryUser is one entry of the chat-platform user directory, as the
// outer layer resolves it. Deleted and bot entries are never reminded.
type DirectoryUser struct {
	ID          string
	DisplayName string
	RealName    string
	Deleted     bool
	IsBot       bool
}

// MerchantName applies the display-name-or-real-name rule used everywhere a
// directory user is mapped to a merchant identity.
func (u DirectoryUser) MerchantName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.RealName
}

// Directory is the outer layer's view of the chat platform: user listing
// and group membership. The core only consumes resolved identities.
type Directory interface {
	Users(ctx context.Context) ([]DirectoryUser, error)
	GroupMembers(ctx context.Context, groupID string) ([]string, error)
}

var directoryInstance Directory

// SetDirectory wires the chat-platform directory implementation. The
// delivery integration registers it at startup.
func SetDirectory(dir Directory) {
	directoryInstance = dir
}

// GetDirectory returns the wired directory, or nil when none is configured.
func GetDirectory() Directory {
	return directoryInstance
}

// RecipientPolicy decides which merchant identities are allowed to receive
// scheduled reminders. Two policies exist and are kept pluggable: a static
// allow-list and dynamic membership of a platform group.
type RecipientPolicy interface {
	AllowedMerchants(ctx context.Context, dir Directory) (map[string]bool, error)
}

// StaticAllowList allows a fixed set of merchant names.
type StaticAllowList []string

// AllowedMerchants returns the configured names as a set.
func (l StaticAllowList) AllowedMerchants(_ context.Context, _ Directory) (map[string]bool, error) {
	allowed := make(map[string]bool, len(l))
	for _, merchant := range l {
		allowed[merchant] = true
	}
	return allowed, nil
}

// GroupMembership allows whoever is currently a member of the configured
// platform group, resolved through the directory at targeting time.
type GroupMembership struct {
	GroupID string
}

// AllowedMerchants resolves group member ids to merchant names via the
// directory.
func (g GroupMembership) AllowedMerchants(ctx context.Context, dir Directory) (map[string]bool, error) {
	memberIDs, err := dir.GroupMembers(ctx, g.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group %s: %w", g.GroupID, err)
	}
	members := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
	}

	users, err := dir.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory users: %w", err)
	}
	allowed := make(map[string]bool)
	for _, user := range users {
		if members[user.ID] {
			allowed[user.MerchantName()] = true
		}
	}
	return allowed, nil
}

// ReminderTarget is one merchant due a scheduled nudge, resolved to a
// directory user, carrying the merchant's newest active style.
type ReminderTarget struct {
	Merchant    string       `json:"merchant"`
	UserID      string       `json:"user_id"`
	LatestStyle models.Style `json:"latest_style"`
}

// Notifier delivers a reminder to a target. Actual chat delivery lives in
// the outer layer; LogNotifier is the in-repo default.
type Notifier interface {
	Notify(ctx context.Context, target ReminderTarget) error
}

// LogNotifier writes reminder targets to the process log instead of
// delivering them.
type LogNotifier struct{}

// Notify logs the target.
func (LogNotifier) Notify(_ context.Context, target ReminderTarget) error {
	log.Printf("reminder due: merchant=%s user=%s latest_style=%s·%s",
		target.Merchant, target.UserID, target.LatestStyle.Brand, target.LatestStyle.StyleNo)
	return nil
}

// ReminderService computes the set of merchants eligible for the daily
// nudge. It reads the store only; the cadence and delivery are external.
type ReminderService struct {
	store  *StyleStore
	policy RecipientPolicy
}

// NewReminderService creates a reminder service with the given recipient
// policy.
func NewReminderService(store *StyleStore, policy RecipientPolicy) *ReminderService {
	return &ReminderService{store: store, policy: policy}
}

// LatestActiveStyle returns the merchant's newest active style, or nil when
// the merchant has none.
func (r *ReminderService) LatestActiveStyle(merchant string) (*models.Style, error) {
	styles, err := r.store.ListByMerchant(merchant, true)
	if err != nil {
		return nil, err
	}
	if len(styles) == 0 {
		return nil, nil
	}
	// ListByMerchant orders newest-created-first
	return &styles[0], nil
}

// EligibleTargets computes the merchants due a reminder: those with at
// least one active style, allowed by the recipient policy, and resolvable
// to a live human directory user.
func (r *ReminderService) EligibleTargets(ctx context.Context, dir Directory) ([]ReminderTarget, error) {
	allowed, err := r.policy.AllowedMerchants(ctx, dir)
	if err != nil {
		return nil, err
	}

	styles, err := r.store.ListAll()
	if err != nil {
		return nil, err
	}

	// newest active style per merchant; styles arrive newest-first
	latest := make(map[string]models.Style)
	for _, style := range styles {
		if !style.Active {
			continue
		}
		if _, seen := latest[style.Merchant]; !seen {
			latest[style.Merchant] = style
		}
	}
	if len(latest) == 0 {
		return nil, nil
	}

	users, err := dir.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory users: %w", err)
	}
	userByMerchant := make(map[string]DirectoryUser)
	for _, user := range users {
		if user.Deleted || user.IsBot {
			continue
		}
		if name := user.MerchantName(); name != "" {
			if _, seen := userByMerchant[name]; !seen {
				userByMerchant[name] = user
			}
		}
	}

	var targets []ReminderTarget
	for merchant, style := range latest {
		if !allowed[merchant] {
			continue
		}
		user, ok := userByMerchant[merchant]
		if !ok {
			continue
		}
		targets = append(targets, ReminderTarget{
			Merchant:    merchant,
			UserID:      user.ID,
			LatestStyle: style,
		})
	}
	return targets, nil
}
