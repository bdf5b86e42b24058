package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

const (
	firestoreCacheCollection = "analysisCache"
	firestoreAuditCollection = "analysisAudit"
)

type firestoreCacheDoc struct {
	Hash    string    `firestore:"hash"`
	DocType string    `firestore:"docType"`
	Source  string    `firestore:"source"`
	Payload string    `firestore:"payload"`
	SavedAt time.Time `firestore:"savedAt"`
}

type firestoreAuditDoc struct {
	Hash        string    `firestore:"hash"`
	DocType     string    `firestore:"docType"`
	Source      string    `firestore:"source"`
	SavedAt     time.Time `firestore:"savedAt"`
	SizeInBytes int       `firestore:"sizeInBytes"`
}

// FirestoreCache keeps entries in the analysisCache collection, one document
// per <type>_<hash>, and audit records in analysisAudit.
type FirestoreCache struct {
	client *firestore.Client
	logger *slog.Logger
}

// OpenFirestore creates a Firestore client for projectID.
func OpenFirestore(ctx context.Context, projectID string, logger *slog.Logger) (*FirestoreCache, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	logger.Info("connected to firestore cache", "project", projectID)
	return &FirestoreCache{client: client, logger: logger}, nil
}

func firestoreDocID(hash entity.ContentHash, docType constants.DocumentType) string {
	return fmt.Sprintf("%s_%s", docType, hash)
}

func (c *FirestoreCache) Get(ctx context.Context, hash entity.ContentHash, docType constants.DocumentType) (*entity.CacheEntry, error) {
	snap, err := c.client.Collection(firestoreCacheCollection).Doc(firestoreDocID(hash, docType)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %s: %w", hash, err)
	}
	var doc firestoreCacheDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore decode %s: %w", hash, err)
	}
	extraction, err := decodePayload([]byte(doc.Payload))
	if err != nil {
		return nil, err
	}
	return &entity.CacheEntry{
		Hash:    hash,
		DocType: docType,
		Source:  constants.AnalysisSource(doc.Source),
		Payload: extraction,
		SavedAt: doc.SavedAt,
	}, nil
}

func (c *FirestoreCache) Put(ctx context.Context, entry entity.CacheEntry) error {
	payload, err := encodePayload(entry.Payload)
	if err != nil {
		return err
	}
	_, err = c.client.Collection(firestoreCacheCollection).Doc(firestoreDocID(entry.Hash, entry.DocType)).Set(ctx, firestoreCacheDoc{
		Hash:    string(entry.Hash),
		DocType: string(entry.DocType),
		Source:  string(entry.Source),
		Payload: string(payload),
		SavedAt: entry.SavedAt,
	})
	if err != nil {
		return fmt.Errorf("firestore put %s: %w", entry.Hash, err)
	}
	return nil
}

func (c *FirestoreCache) AppendAudit(ctx context.Context, entry entity.AuditEntry) error {
	_, _, err := c.client.Collection(firestoreAuditCollection).Add(ctx, firestoreAuditDoc{
		Hash:        string(entry.Hash),
		DocType:     string(entry.DocType),
		Source:      string(entry.Source),
		SavedAt:     entry.SavedAt,
		SizeInBytes: entry.SizeInBytes,
	})
	if err != nil {
		return fmt.Errorf("firestore audit %s: %w", entry.Hash, err)
	}
	return nil
}

func (c *FirestoreCache) Close() error {
	return c.client.Close()
}
