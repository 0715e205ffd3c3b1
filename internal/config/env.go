package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
)

// SecretFetcher is the subset of the Secrets Manager client used here.
type SecretFetcher interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadEnv pulls secrets (e.g. JWT_SECRET) from AWS Secrets Manager when
// AWS_SECRETS_MANAGER_SECRET_ID is set, then loads the .env file. Neither
// source is required.
func LoadEnv(ctx context.Context, defaultEnvPath string) {
	if secretID := os.Getenv("AWS_SECRETS_MANAGER_SECRET_ID"); secretID != "" {
		client, err := newSecretsClient(ctx, os.Getenv("AWS_SECRETS_MANAGER_REGION"))
		if err != nil {
			slog.Warn("skipping AWS Secrets Manager", "error", err)
		} else if n, err := applySecret(ctx, client, secretID, overwriteSecrets()); err != nil {
			slog.Warn("skipping AWS Secrets Manager", "secret_id", secretID, "error", err)
		} else {
			slog.Info("loaded env vars from AWS Secrets Manager", "secret_id", secretID, "count", n)
		}
	}
	loadDotEnv(defaultEnvPath)
}

func loadDotEnv(defaultEnvPath string) {
	envFile := os.Getenv("ENV_FILE_PATH")
	if envFile == "" {
		envFile = defaultEnvPath
	}
	if err := godotenv.Load(envFile); err != nil {
		slog.Debug("no .env file, using process environment", "path", envFile)
	}
}

func overwriteSecrets() bool {
	return strings.EqualFold(os.Getenv("AWS_SECRETS_MANAGER_OVERWRITE"), "true")
}

func newSecretsClient(ctx context.Context, region string) (*secretsmanager.Client, error) {
	var (
		cfg aws.Config
		err error
	)
	if region != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx)
	}
	if err != nil {
		return nil, err
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// applySecret copies the key/value pairs of a JSON secret into the process
// environment and returns how many were set. Existing variables are kept
// unless overwrite is true.
func applySecret(ctx context.Context, client SecretFetcher, secretID string, overwrite bool) (int, error) {
	output, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return 0, fmt.Errorf("fetching secret %s: %w", secretID, err)
	}

	var payload string
	switch {
	case output.SecretString != nil:
		payload = *output.SecretString
	case len(output.SecretBinary) > 0:
		payload = string(output.SecretBinary)
	default:
		return 0, fmt.Errorf("secret %s has no payload", secretID)
	}

	var kv map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &kv); err != nil {
		return 0, fmt.Errorf("parsing secret %s as JSON: %w", secretID, err)
	}

	applied := 0
	for key, val := range kv {
		if !overwrite && os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return applied, fmt.Errorf("setting env %s from secret: %w", key, err)
		}
		applied++
	}
	return applied, nil
}
