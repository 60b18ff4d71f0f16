package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StorageDriver != StorageDriverPostgres {
		t.Fatalf("unexpected storage driver: %q", cfg.StorageDriver)
	}
	if cfg.ImportHorizon != 360*time.Hour {
		t.Fatalf("unexpected import horizon: %s", cfg.ImportHorizon)
	}
	if cfg.ImportWorkers != 4 {
		t.Fatalf("unexpected import workers: %d", cfg.ImportWorkers)
	}
	if cfg.ImportSchedule != "@daily" || !cfg.ImportRunOnStart {
		t.Fatalf("unexpected import schedule: %q run_on_start=%v", cfg.ImportSchedule, cfg.ImportRunOnStart)
	}
	if cfg.FootballDataBaseURL != "https://api.football-data.org/v4" {
		t.Fatalf("unexpected football-data base url: %q", cfg.FootballDataBaseURL)
	}
	if cfg.ResolverCacheTTL != 24*time.Hour {
		t.Fatalf("unexpected resolver cache ttl: %s", cfg.ResolverCacheTTL)
	}
	if cfg.FootballDataMaxRetries != 0 {
		t.Fatalf("expected provider retries off by default, got %d", cfg.FootballDataMaxRetries)
	}
	if cfg.JWTTokenTTL != time.Hour {
		t.Fatalf("unexpected jwt ttl: %s", cfg.JWTTokenTTL)
	}
	if !cfg.FootballDataCircuit.Enabled || cfg.FootballDataCircuit.FailureThreshold != 5 {
		t.Fatalf("unexpected circuit defaults: %+v", cfg.FootballDataCircuit)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `foo=bar, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("APP_SERVICE_NAME", "matchmap-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "matchmap-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://map.example.com, http://localhost:5173 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
	}
	if cfg.CORSAllowedOrigins[0] != "https://map.example.com" || cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
		t.Fatalf("unexpected CORS origins: %+v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_StorageDriverValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("memory accepted", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", " Memory ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StorageDriver != StorageDriverMemory {
			t.Fatalf("unexpected storage driver: %q", cfg.StorageDriver)
		}
	})

	t.Run("unknown rejected", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "mysql")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown STORAGE_DRIVER")
		}
	})
}

func TestLoad_ImportSettings(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("custom values", func(t *testing.T) {
		t.Setenv("IMPORT_HORIZON", "72h")
		t.Setenv("IMPORT_WORKERS", "8")
		t.Setenv("IMPORT_SCHEDULE", "0 3 * * *")
		t.Setenv("IMPORT_RUN_ON_START", "false")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.ImportHorizon != 72*time.Hour || cfg.ImportWorkers != 8 {
			t.Fatalf("unexpected import config: horizon=%s workers=%d", cfg.ImportHorizon, cfg.ImportWorkers)
		}
		if cfg.ImportSchedule != "0 3 * * *" || cfg.ImportRunOnStart {
			t.Fatalf("unexpected schedule config: %q %v", cfg.ImportSchedule, cfg.ImportRunOnStart)
		}
	})

	t.Run("zero workers rejected", func(t *testing.T) {
		t.Setenv("IMPORT_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for IMPORT_WORKERS=0")
		}
	})

	t.Run("negative horizon rejected", func(t *testing.T) {
		t.Setenv("IMPORT_WORKERS", "")
		t.Setenv("IMPORT_HORIZON", "-1h")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative IMPORT_HORIZON")
		}
	})
}

func TestLoad_CircuitBreakerParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("OPENCAGE_CIRCUIT_ENABLED", "false")
	t.Setenv("OPENCAGE_CIRCUIT_FAILURE_COUNT", "3")
	t.Setenv("OPENCAGE_CIRCUIT_OPEN_TIMEOUT", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.OpenCageCircuit.Enabled || cfg.OpenCageCircuit.FailureThreshold != 3 || cfg.OpenCageCircuit.OpenTimeout != time.Minute {
		t.Fatalf("unexpected opencage circuit: %+v", cfg.OpenCageCircuit)
	}

	t.Setenv("WIKI_CIRCUIT_HALF_OPEN_MAX_REQ", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for WIKI_CIRCUIT_HALF_OPEN_MAX_REQ=0")
	}
}

func TestLoad_RateLimitsMustBePositive(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("WIKI_RATE_PER_SEC", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for WIKI_RATE_PER_SEC=0")
	}
}

func TestValidateAPI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "missing secret", cfg: Config{AppEnv: EnvDev}, wantErr: true},
		{name: "short secret ok in dev", cfg: Config{AppEnv: EnvDev, JWTSecret: "dev"}},
		{name: "short secret rejected in prod", cfg: Config{AppEnv: EnvProd, JWTSecret: "short"}, wantErr: true},
		{name: "long secret in prod", cfg: Config{AppEnv: EnvProd, JWTSecret: "0123456789abcdef0123456789abcdef"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateAPI()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAPI() err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
