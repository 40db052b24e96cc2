// internal/infra/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRPCURL         = "https://api.devnet.solana.com"
	DefaultTxTimeout      = 30 * time.Second
	DefaultTxPollInterval = 500 * time.Millisecond
	DefaultTxCommitment   = "confirmed"
)

var (
	ErrMissingCandyMachineID = errors.New("config: CANDY_MACHINE_ID is required")
	ErrMissingMintAccounts   = errors.New("config: CANDY_MACHINE_CONFIG and TREASURY_ADDRESS are required to mint")
	ErrInvalidAddress        = errors.New("config: invalid base58 address")
	ErrInvalidCommitment     = errors.New("config: TX_COMMITMENT must be processed, confirmed or finalized")
)

// Config は CLI / DI 全体の設定を保持します。
type Config struct {
	RPCURL string `yaml:"rpc_url"`

	CandyMachineID        string `yaml:"candy_machine_id"`
	CandyMachineConfig    string `yaml:"candy_machine_config"`
	TreasuryAddress       string `yaml:"treasury_address"`
	CandyMachineProgramID string `yaml:"candy_machine_program_id"`

	// StartDate はオンチェーンに go_live_date が無い場合の開始時刻
	StartDate time.Time `yaml:"-"`

	TxTimeout      time.Duration `yaml:"tx_timeout"`
	TxPollInterval time.Duration `yaml:"tx_poll_interval"`
	TxCommitment   string        `yaml:"tx_commitment"`

	// 署名ウォレット（どちらか一方）
	KeypairPath   string `yaml:"keypair_path"`
	KeypairSecret string `yaml:"keypair_secret"`

	// 試行ジャーナル（空ならジャーナル無効）
	FirestoreProjectID       string `yaml:"firestore_project_id"`
	FirestoreCredentialsFile string `yaml:"firestore_credentials_file"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// fileConfig は YAML 上の表現（開始時刻は unix 秒）です。
type fileConfig struct {
	Config    `yaml:",inline"`
	StartDate int64 `yaml:"start_date"`
}

// Load は CANDYMINT_CONFIG_PATH の YAML（任意）を読み込み、その上に環境変数を重ねて返します。
func Load() (*Config, error) {
	cfg := &Config{
		RPCURL:         DefaultRPCURL,
		TxTimeout:      DefaultTxTimeout,
		TxPollInterval: DefaultTxPollInterval,
		TxCommitment:   DefaultTxCommitment,
		LogLevel:       "info",
		LogFormat:      "console",
	}

	if path := strings.TrimSpace(os.Getenv("CANDYMINT_CONFIG_PATH")); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	fc := fileConfig{Config: *c}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	*c = fc.Config
	if fc.StartDate != 0 {
		c.StartDate = time.Unix(fc.StartDate, 0).UTC()
	}
	return nil
}

func (c *Config) overlayEnv() error {
	c.RPCURL = getenvDefault("SOLANA_RPC_URL", c.RPCURL)
	c.CandyMachineID = getenvDefault("CANDY_MACHINE_ID", c.CandyMachineID)
	c.CandyMachineConfig = getenvDefault("CANDY_MACHINE_CONFIG", c.CandyMachineConfig)
	c.TreasuryAddress = getenvDefault("TREASURY_ADDRESS", c.TreasuryAddress)
	c.CandyMachineProgramID = getenvDefault("CANDY_MACHINE_PROGRAM_ID", c.CandyMachineProgramID)
	c.TxCommitment = getenvDefault("TX_COMMITMENT", c.TxCommitment)
	c.KeypairPath = getenvDefault("SOLANA_KEYPAIR_PATH", c.KeypairPath)
	c.KeypairSecret = getenvDefault("SOLANA_KEYPAIR_SECRET", c.KeypairSecret)
	c.FirestoreProjectID = getenvDefault("FIRESTORE_PROJECT_ID", c.FirestoreProjectID)
	c.FirestoreCredentialsFile = getenvDefault("FIRESTORE_CREDENTIALS_FILE", c.FirestoreCredentialsFile)
	c.LogLevel = getenvDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenvDefault("LOG_FORMAT", c.LogFormat)

	if v := os.Getenv("CANDY_START_DATE"); v != "" {
		sec, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("config: CANDY_START_DATE: %w", err)
		}
		c.StartDate = time.Unix(sec, 0).UTC()
	}

	var err error
	if c.TxTimeout, err = getenvMillis("TX_TIMEOUT_MS", c.TxTimeout); err != nil {
		return err
	}
	if c.TxPollInterval, err = getenvMillis("TX_POLL_INTERVAL_MS", c.TxPollInterval); err != nil {
		return err
	}
	return nil
}

// Validate は読み取り系コマンドに必要な設定を検証します。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CandyMachineID) == "" {
		return ErrMissingCandyMachineID
	}
	for key, addr := range map[string]string{
		"CANDY_MACHINE_ID":         c.CandyMachineID,
		"CANDY_MACHINE_CONFIG":     c.CandyMachineConfig,
		"TREASURY_ADDRESS":         c.TreasuryAddress,
		"CANDY_MACHINE_PROGRAM_ID": c.CandyMachineProgramID,
	} {
		if err := validateAddress(key, addr); err != nil {
			return err
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.TxCommitment)) {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCommitment, c.TxCommitment)
	}
	if c.TxTimeout <= 0 || c.TxPollInterval <= 0 {
		return fmt.Errorf("config: TX_TIMEOUT_MS and TX_POLL_INTERVAL_MS must be positive")
	}
	return nil
}

// ValidateMint は mint に必要な設定まで含めて検証します。
func (c *Config) ValidateMint() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.CandyMachineConfig) == "" || strings.TrimSpace(c.TreasuryAddress) == "" {
		return ErrMissingMintAccounts
	}
	return nil
}

// JournalEnabled は Firestore ジャーナルを使うかどうかを返します。
func (c *Config) JournalEnabled() bool {
	return strings.TrimSpace(c.FirestoreProjectID) != ""
}

func validateAddress(key, addr string) error {
	a := strings.TrimSpace(addr)
	if a == "" {
		return nil
	}
	if _, err := solanago.PublicKeyFromBase58(a); err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalidAddress, key, a, err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvMillis(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
