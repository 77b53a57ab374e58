// FILE: lixenwraith/settings/example/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lixenwraith/settings"
)

// AppConfig defines a richer configuration structure to showcase more features.
type AppConfig struct {
	Host     string                         `conf:"host"`
	Port     int                            `conf:"port"`
	Debug    bool                           `conf:"debug"`
	Retries  int                            `conf:"retries"`
	APIKey   string                         `conf:"api_key"`
	Database DatabaseConfig                 `conf:"database"`
	Origins  settings.DelimitedList[string] `conf:"origins"`
	Tuning   settings.Params                `conf:"tuning"`
}

type DatabaseConfig struct {
	Host string `conf:"host"`
	Port int    `conf:"port"`
	Name string `conf:"name"`
}

func main() {
	// =========================================================================
	// PART 1: FIXTURE SETUP
	// Create the INI file, secrets directory, and dotenv file the sources
	// will read, plus a few live environment variables.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 1: Creating configuration fixtures...")

	dir, err := os.MkdirTemp("", "settings-demo-")
	if err != nil {
		log.Fatalf("❌ Failed to create fixture directory: %v", err)
	}

	// Defer cleanup to run at the very end of the program.
	defer func() {
		log.Println("---")
		log.Println("🧹 Cleaning up...")
		os.RemoveAll(dir)
		for _, name := range []string{"APP_HOST", "APP_DATABASE", "APP_ORIGINS", "APP_TUNING"} {
			os.Unsetenv(name)
		}
		log.Printf("Removed %s and unset APP_* variables.", dir)
	}()

	iniPath := filepath.Join(dir, "app.ini")
	iniData := "host = ini-host\nport = 7070\ndebug = true\n"
	if err := os.WriteFile(iniPath, []byte(iniData), 0644); err != nil {
		log.Fatalf("❌ Failed to write INI file: %v", err)
	}

	secretsDir := filepath.Join(dir, "secrets")
	os.MkdirAll(secretsDir, 0700)
	if err := os.WriteFile(filepath.Join(secretsDir, "api_key"), []byte("demo-s3cret-key\n"), 0600); err != nil {
		log.Fatalf("❌ Failed to write secret file: %v", err)
	}

	envFilePath := filepath.Join(dir, ".env.demo")
	if err := os.WriteFile(envFilePath, []byte("APP_RETRIES=3\n"), 0644); err != nil {
		log.Fatalf("❌ Failed to write dotenv file: %v", err)
	}

	// Live environment variables override dotenv values and the INI file.
	os.Setenv("APP_HOST", "env-host")
	os.Setenv("APP_DATABASE", `{"host":"db.internal","port":5432,"name":"appdb"}`)
	os.Setenv("APP_ORIGINS", "a.example.com,b.example.com")
	os.Setenv("APP_TUNING", "rate=10&burst=20")
	log.Println("✅ Fixtures created (INI file, secrets dir, dotenv file, APP_* variables).")

	// =========================================================================
	// PART 2: REGISTRY CONFIGURATION
	// Bind the INI source to its file for the "demo" environment only. Other
	// environments keep the source available but inert.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 2: Binding the INI source for the demo environment...")

	if err := settings.Configure("ini", "demo", settings.Options{"ini_file": iniPath}); err != nil {
		log.Fatalf("❌ Failed to configure INI source: %v", err)
	}
	log.Println("✅ INI source bound to", iniPath)

	// =========================================================================
	// PART 3: RESOLUTION THROUGH THE BUILDER
	// This demonstrates source precedence, defaults, and validation.
	// Precedence, highest first: explicit values, env, secrets, INI, defaults.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 3: Resolving configuration with the Builder...")

	// Define a custom validator function.
	validator := func(target any) error {
		cfg := target.(*AppConfig)
		if cfg.Port < 1024 || cfg.Port > 65535 {
			return fmt.Errorf("port %d is outside the recommended range (1024-65535)", cfg.Port)
		}
		return nil
	}

	builder := settings.NewBuilder().
		WithSources("env", "secrets", "ini").
		WithEnvironment("demo").
		WithEnvPrefix("app_").
		WithEnvFile(envFilePath).
		WithSecretsDir(secretsDir).
		WithDefaults(AppConfig{Host: "localhost", Port: 8080}).
		WithValue("database.name", "overridden-db"). // Explicit values beat every source
		WithValidator(validator)

	var cfg AppConfig
	if err := builder.Load(&cfg); err != nil {
		log.Fatalf("❌ Builder load failed: %v", err)
	}

	log.Println("✅ Resolution finished successfully.")
	printCurrentState(&cfg)

	// Spot-check the precedence chain.
	verify("host from environment beats INI", cfg.Host == "env-host")
	verify("port from INI beats the default", cfg.Port == 7070)
	verify("retries from the dotenv file", cfg.Retries == 3)
	verify("api_key from the secrets directory", cfg.APIKey == "demo-s3cret-key")
	verify("database decoded from JSON", cfg.Database.Host == "db.internal" && cfg.Database.Port == 5432)
	verify("database.name from explicit value", cfg.Database.Name == "overridden-db")
	verify("origins split on comma", cfg.Origins.Len() == 2)

	rate, _ := cfg.Tuning.Get("rate")
	verify("tuning parsed as key-value params", rate == "10")

	// =========================================================================
	// PART 4: INSPECTING THE MERGED MAPPING
	// Resolve returns the raw merged mapping, useful for debugging which
	// source contributed which value.
	// =========================================================================
	log.Println("---")
	log.Println("➡️  PART 4: Dumping the merged mapping...")

	schema, err := settings.DeriveSchema(&AppConfig{})
	if err != nil {
		log.Fatalf("❌ Schema derivation failed: %v", err)
	}
	merged, err := builder.Resolve(schema)
	if err != nil {
		log.Fatalf("❌ Resolve failed: %v", err)
	}

	fmt.Println("   --------------------------------------------------")
	for _, line := range strings.Split(settings.Dump(merged), "\n") {
		fmt.Printf("     %s\n", line)
	}
	fmt.Println("   --------------------------------------------------")
}

// verify logs a checkmark per demonstrated behavior and aborts on mismatch.
func verify(what string, ok bool) {
	if !ok {
		log.Fatalf("❌ VERIFICATION FAILED: %s", what)
	}
	log.Printf("✅ %s", what)
}

// printCurrentState is a helper to display the typed config state.
func printCurrentState(cfg *AppConfig) {
	fmt.Println("   --------------------------------------------------")
	fmt.Println("             Resolved Configuration")
	fmt.Println("   --------------------------------------------------")
	fmt.Printf("     Host:       %s\n", cfg.Host)
	fmt.Printf("     Port:       %d\n", cfg.Port)
	fmt.Printf("     Debug:      %v\n", cfg.Debug)
	fmt.Printf("     Retries:    %d\n", cfg.Retries)
	fmt.Printf("     API Key:    %s\n", cfg.APIKey)
	fmt.Printf("     Database:   %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	fmt.Printf("     Origins:    %v\n", cfg.Origins.Items())
	fmt.Printf("     Tuning:     %s\n", cfg.Tuning.String())
	fmt.Println("   --------------------------------------------------")
}
