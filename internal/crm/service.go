package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2/clientcredentials"
	"gorm.io/gorm"

	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/pkg/config"
	"github.com/harper/dealdesk/pkg/crypto"
	"github.com/harper/dealdesk/pkg/util"
)

// Credential is the secret half of a CRM connection. It is serialized
// to JSON and encrypted before it touches the database.
type Credential struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AccountID    string `json:"account_id,omitempty"`
}

// Service manages CRM connections and runs deal synchronization
// against the provider APIs.
type Service struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
	cfg       config.CRMConfig
	logger    *slog.Logger
}

func NewService(db *gorm.DB, encryptor *crypto.Encryptor, cfg config.CRMConfig, logger *slog.Logger) *Service {
	return &Service{
		db:        db,
		encryptor: encryptor,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateConnection encrypts and stores a new CRM connection. An empty
// schedule means the connection only syncs on demand.
func (s *Service) CreateConnection(ctx context.Context, orgID uuid.UUID, name string, provider models.CRMProvider, cred Credential, schedule string) (*models.CRMConnection, error) {
	jsonData, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("serializing credentials: %w", err)
	}

	encrypted, err := s.encryptor.Encrypt(jsonData)
	if err != nil {
		return nil, fmt.Errorf("encrypting credentials: %w", err)
	}

	conn := &models.CRMConnection{
		OrganizationID: orgID,
		Name:           name,
		Provider:       provider,
		EncryptedData:  encrypted,
		IsActive:       true,
		SyncSchedule:   schedule,
	}
	if schedule != "" {
		next, err := util.NextCronTime(schedule, time.Now())
		if err != nil {
			return nil, err
		}
		conn.NextSyncAt = &next
	}

	if err := s.db.WithContext(ctx).Create(conn).Error; err != nil {
		return nil, fmt.Errorf("saving connection: %w", err)
	}

	s.logger.Info("created CRM connection",
		"id", conn.ID,
		"name", name,
		"provider", provider,
	)

	return conn, nil
}

// GetConnection retrieves a connection by ID. Encrypted credentials are
// not decrypted here.
func (s *Service) GetConnection(ctx context.Context, orgID, connID uuid.UUID) (*models.CRMConnection, error) {
	var conn models.CRMConnection
	if err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", connID, orgID).
		First(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

// ListConnections returns all connections for an organization.
func (s *Service) ListConnections(ctx context.Context, orgID uuid.UUID) ([]models.CRMConnection, error) {
	var conns []models.CRMConnection
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&conns).Error
	return conns, err
}

// DeleteConnection removes a connection and its encrypted credentials.
func (s *Service) DeleteConnection(ctx context.Context, orgID, connID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", connID, orgID).
		Delete(&models.CRMConnection{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DueConnections returns active scheduled connections whose next sync
// time has passed.
func (s *Service) DueConnections(ctx context.Context, now time.Time) ([]models.CRMConnection, error) {
	var conns []models.CRMConnection
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND sync_schedule <> '' AND next_sync_at <= ?", true, now).
		Find(&conns).Error
	return conns, err
}

// decryptCredential recovers the secret half of a connection.
func (s *Service) decryptCredential(conn *models.CRMConnection) (*Credential, error) {
	plaintext, err := s.encryptor.Decrypt(conn.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("decrypting credentials: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &cred, nil
}

// Sync pushes won deals for the connection's organization to the CRM
// provider. Called from the worker, never the request path.
func (s *Service) Sync(ctx context.Context, connID uuid.UUID) error {
	var conn models.CRMConnection
	if err := s.db.WithContext(ctx).First(&conn, "id = ?", connID).Error; err != nil {
		return fmt.Errorf("loading connection: %w", err)
	}
	if !conn.IsActive {
		s.logger.Debug("skipping inactive connection", "id", connID)
		return nil
	}

	cred, err := s.decryptCredential(&conn)
	if err != nil {
		return s.recordSyncResult(ctx, &conn, err)
	}

	ccCfg := clientcredentials.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		TokenURL:     s.cfg.TokenURL,
		Scopes:       s.cfg.Scopes,
	}

	token, err := ccCfg.Token(ctx)
	if err != nil {
		return s.recordSyncResult(ctx, &conn, fmt.Errorf("fetching provider token: %w", err))
	}

	var deals []models.Deal
	err = s.db.WithContext(ctx).
		Where("organization_id = ? AND stage = ?", conn.OrganizationID, models.DealStageWon).
		Find(&deals).Error
	if err != nil {
		return s.recordSyncResult(ctx, &conn, fmt.Errorf("loading deals: %w", err))
	}

	client := ccCfg.Client(ctx)
	pushed := 0
	for _, deal := range deals {
		if err := pushDeal(ctx, client, conn.Provider, &deal); err != nil {
			return s.recordSyncResult(ctx, &conn, fmt.Errorf("pushing deal %s: %w", deal.ID, err))
		}
		pushed++
	}

	s.logger.Info("CRM sync complete",
		"connection", conn.ID,
		"provider", conn.Provider,
		"deals", pushed,
		"token_expiry", token.Expiry,
	)
	return s.recordSyncResult(ctx, &conn, nil)
}

// recordSyncResult stamps the connection with the outcome of a sync run.
func (s *Service) recordSyncResult(ctx context.Context, conn *models.CRMConnection, syncErr error) error {
	now := time.Now()
	updates := map[string]interface{}{
		"last_synced_at":  &now,
		"last_sync_error": "",
	}
	if syncErr != nil {
		updates["last_sync_error"] = syncErr.Error()
	}
	if conn.SyncSchedule != "" {
		if next, err := util.NextCronTime(conn.SyncSchedule, now); err == nil {
			updates["next_sync_at"] = &next
		}
	}

	if err := s.db.WithContext(ctx).Model(conn).Updates(updates).Error; err != nil {
		s.logger.Error("recording sync result", "connection", conn.ID, "error", err)
	}
	return syncErr
}
