package policy

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps per-guild policies and per-(guild,user) cooldown marks in
// sqlite. Safe for concurrent use; a policy row is always written as a
// whole, so readers never observe a half-applied update.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS server_policies (
			guild_id TEXT PRIMARY KEY,
			enabled BOOLEAN DEFAULT 1,
			allowed_channels TEXT,
			blocked_channels TEXT,
			allowed_roles TEXT,
			blocked_roles TEXT,
			cooldown_seconds INTEGER DEFAULT 5,
			max_message_length INTEGER DEFAULT 2000,
			require_mention BOOLEAN DEFAULT 0,
			admin_only BOOLEAN DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create server_policies table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS user_cooldowns (
			guild_id TEXT,
			user_id TEXT,
			last_used TIMESTAMP,
			PRIMARY KEY (guild_id, user_id)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create user_cooldowns table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func scanPolicy(row *sql.Row) (Policy, error) {
	var p Policy
	var allowedCh, blockedCh, allowedRoles, blockedRoles sql.NullString
	err := row.Scan(&p.Enabled, &allowedCh, &blockedCh, &allowedRoles, &blockedRoles,
		&p.CooldownSeconds, &p.MaxMessageLength, &p.RequireMention, &p.AdminOnly)
	if err != nil {
		return Policy{}, err
	}
	p.AllowedChannels = splitIDs(allowedCh.String)
	p.BlockedChannels = splitIDs(blockedCh.String)
	p.AllowedRoles = splitIDs(allowedRoles.String)
	p.BlockedRoles = splitIDs(blockedRoles.String)
	return p, nil
}

const policyColumns = `enabled, allowed_channels, blocked_channels, allowed_roles,
	blocked_roles, cooldown_seconds, max_message_length, require_mention, admin_only`

// Get returns the stored policy for a guild, or the default one when no
// row exists. A read failure also falls back to the default so a store
// outage never blocks the admission path.
func (s *Store) Get(guildID string) Policy {
	row := s.db.QueryRow(`SELECT `+policyColumns+` FROM server_policies WHERE guild_id = ?`, guildID)
	p, err := scanPolicy(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[WARN] Policy read failed for guild %s, using default: %v", guildID, err)
		}
		return Default()
	}
	return p
}

// Update merges a partial change into the guild's policy and writes the
// full row back, creating the row from defaults if it does not exist.
func (s *Store) Update(guildID string, u Update) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin policy update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+policyColumns+` FROM server_policies WHERE guild_id = ?`, guildID)
	existing, err := scanPolicy(row)

	switch {
	case err == nil:
		p := u.apply(existing)
		_, err = tx.Exec(`
			UPDATE server_policies SET
				enabled = ?, allowed_channels = ?, blocked_channels = ?,
				allowed_roles = ?, blocked_roles = ?, cooldown_seconds = ?,
				max_message_length = ?, require_mention = ?, admin_only = ?
			WHERE guild_id = ?`,
			p.Enabled, joinIDs(p.AllowedChannels), joinIDs(p.BlockedChannels),
			joinIDs(p.AllowedRoles), joinIDs(p.BlockedRoles), p.CooldownSeconds,
			p.MaxMessageLength, p.RequireMention, p.AdminOnly, guildID)
	case errors.Is(err, sql.ErrNoRows):
		p := u.apply(Default())
		_, err = tx.Exec(`
			INSERT INTO server_policies
				(guild_id, enabled, allowed_channels, blocked_channels,
				 allowed_roles, blocked_roles, cooldown_seconds,
				 max_message_length, require_mention, admin_only)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			guildID, p.Enabled, joinIDs(p.AllowedChannels), joinIDs(p.BlockedChannels),
			joinIDs(p.AllowedRoles), joinIDs(p.BlockedRoles), p.CooldownSeconds,
			p.MaxMessageLength, p.RequireMention, p.AdminOnly)
	default:
		return fmt.Errorf("failed to read policy for guild %s: %w", guildID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to write policy for guild %s: %w", guildID, err)
	}
	return tx.Commit()
}

// All returns every stored guild policy, for operational tooling.
func (s *Store) All() ([]GuildPolicy, error) {
	rows, err := s.db.Query(`SELECT guild_id, ` + policyColumns + ` FROM server_policies`)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var out []GuildPolicy
	for rows.Next() {
		var gp GuildPolicy
		var allowedCh, blockedCh, allowedRoles, blockedRoles sql.NullString
		if err := rows.Scan(&gp.GuildID, &gp.Enabled, &allowedCh, &blockedCh,
			&allowedRoles, &blockedRoles, &gp.CooldownSeconds, &gp.MaxMessageLength,
			&gp.RequireMention, &gp.AdminOnly); err != nil {
			return nil, err
		}
		gp.AllowedChannels = splitIDs(allowedCh.String)
		gp.BlockedChannels = splitIDs(blockedCh.String)
		gp.AllowedRoles = splitIDs(allowedRoles.String)
		gp.BlockedRoles = splitIDs(blockedRoles.String)
		out = append(out, gp)
	}
	return out, rows.Err()
}

// Delete removes a guild's policy row and its cooldown rows.
func (s *Store) Delete(guildID string) error {
	if _, err := s.db.Exec(`DELETE FROM server_policies WHERE guild_id = ?`, guildID); err != nil {
		return fmt.Errorf("failed to delete policy for guild %s: %w", guildID, err)
	}
	if _, err := s.db.Exec(`DELETE FROM user_cooldowns WHERE guild_id = ?`, guildID); err != nil {
		return fmt.Errorf("failed to delete cooldowns for guild %s: %w", guildID, err)
	}
	return nil
}

// CooldownAllowed reports whether the user's last interaction in the
// guild is at least cooldownSeconds old. No record means allowed.
func (s *Store) CooldownAllowed(guildID, userID string, cooldownSeconds int, now time.Time) bool {
	if cooldownSeconds <= 0 {
		return true
	}

	var lastUsed string
	err := s.db.QueryRow(`SELECT last_used FROM user_cooldowns WHERE guild_id = ? AND user_id = ?`,
		guildID, userID).Scan(&lastUsed)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[WARN] Cooldown read failed for %s/%s: %v", guildID, userID, err)
		}
		return true
	}

	t, err := time.Parse(time.RFC3339Nano, lastUsed)
	if err != nil {
		return true
	}
	return !now.Before(t.Add(time.Duration(cooldownSeconds) * time.Second))
}

// TouchCooldown marks the user as having interacted now.
func (s *Store) TouchCooldown(guildID, userID string, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO user_cooldowns (guild_id, user_id, last_used) VALUES (?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET last_used = excluded.last_used`,
		guildID, userID, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to set cooldown for %s/%s: %w", guildID, userID, err)
	}
	return nil
}

// SweepCooldowns deletes cooldown rows older than maxAge. Any sane
// policy cooldown is far below the sweep age, so this only drops rows
// that can no longer influence an admission.
func (s *Store) SweepCooldowns(maxAge time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-maxAge).Format(time.RFC3339Nano)
	res, err := s.db.Exec(`DELETE FROM user_cooldowns WHERE last_used < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cooldowns: %w", err)
	}
	return res.RowsAffected()
}
