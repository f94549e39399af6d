//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/attribute"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/model"
	_ "github.com/suparena/modelstore/proxy/ddb"
	"github.com/suparena/modelstore/registry"
)

func init() {
	registry.RegisterIndexMap("IntegrationUser", map[string]string{
		"PK":     "USER#{id}",
		"SK":     "USER#{id}",
		"GSI1PK": "EMAIL#{email}",
		"GSI1SK": "USER",
	})
}

func setupStorage(t *testing.T) *modelstore.Storage {
	if err := godotenv.Load(); err != nil {
		t.Log("No .env file found, proceeding with environment variables")
	}
	if os.Getenv("AWS_DDB_TABLE") == "" {
		t.Skip("AWS_DDB_TABLE not set, skipping integration test")
	}

	cfg, err := config.Parse([]byte(`
proxies:
  users:
    type: dynamodb
    table: ${AWS_DDB_TABLE}
    model: IntegrationUser
    region: ${AWS_REGION}
    accessKey: ${AWS_ACCESS_KEY}
    secretKey: ${AWS_SECRET_KEY}
`))
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}

	store, err := modelstore.NewStorageFromConfig(cfg)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return store
}

func TestIntegrationModelLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store := setupStorage(t)
	users, err := store.Proxy("users")
	if err != nil {
		t.Fatalf("Failed to get proxy: %v", err)
	}

	class, err := model.NewClass(model.ClassConfig{
		Name:  "IntegrationUser",
		Proxy: users,
		Attributes: []any{
			attribute.Config{Name: "email", Type: "string"},
			attribute.Config{Name: "name", Type: "string"},
			attribute.Config{Name: "createdAt", Type: "date"},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create class: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id := fmt.Sprintf("test-%d", time.Now().Unix())
	user, err := class.New(map[string]any{
		"id":        id,
		"email":     "test@example.com",
		"name":      "Test User",
		"createdAt": time.Now(),
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	// An id set by the caller means the record is saved with update semantics,
	// which requires it to exist.
	op, err := user.Save(ctx)
	if err != nil {
		t.Fatalf("Failed to start save: %v", err)
	}
	if err := op.Wait(ctx); !errors.IsNotFound(err) {
		t.Fatalf("Expected not found for update of a missing user, got: %v", err)
	}

	fresh, err := class.New(map[string]any{"email": "test@example.com", "name": "Test User"})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	op, err = fresh.Save(ctx)
	if err != nil {
		t.Fatalf("Failed to start save: %v", err)
	}
	if err := op.Wait(ctx); err != nil {
		t.Fatalf("Failed to save user: %v", err)
	}
	if fresh.IsNew() {
		t.Fatal("Expected an id after create")
	}

	loaded, err := class.New(map[string]any{"id": fresh.ID()})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	op, err = loaded.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to start load: %v", err)
	}
	if err := op.Wait(ctx); err != nil {
		t.Fatalf("Failed to load user: %v", err)
	}
	if loaded.Get("email") != "test@example.com" {
		t.Errorf("Loaded user doesn't match: got %v", loaded.Data())
	}

	op, err = loaded.Destroy(ctx)
	if err != nil {
		t.Fatalf("Failed to start destroy: %v", err)
	}
	if err := op.Wait(ctx); err != nil {
		t.Fatalf("Failed to destroy user: %v", err)
	}

	op, err = loaded.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to start load: %v", err)
	}
	if err := op.Wait(ctx); !errors.IsNotFound(err) {
		t.Errorf("Expected not found error, got: %v", err)
	}
}
