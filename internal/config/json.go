package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk JSON layout of the configuration file.
// Durations accept both Go duration strings ("30s") and nanosecond numbers.
type StructuredJSONConfig struct {
	App struct {
		PasswordHashKey      string   `json:"password_hash_key"`
		TokenSignKey         string   `json:"token_sign_key"`
		TokenIssuer          string   `json:"token_issuer"`
		TokenDuration        Duration `json:"token_duration"`
		DefaultAdminEmail    string   `json:"default_admin_email"`
		DefaultAdminPassword string   `json:"default_admin_password"`
		ToolTimeout          Duration `json:"tool_timeout"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			Driver string `json:"driver"`
			DSN    string `json:"dsn"`
		} `json:"db,omitempty"`

		Blobs struct {
			Backend          string `json:"backend"`
			Dir              string `json:"dir"`
			FilesContainer   string `json:"files_container"`
			OutputsContainer string `json:"outputs_container"`
			S3               struct {
				Bucket       string `json:"bucket"`
				Region       string `json:"region"`
				BaseEndpoint string `json:"base_endpoint"`
				AccessKey    string `json:"access_key"`
				SecretKey    string `json:"secret_key"`
			} `json:"s3,omitempty"`
		} `json:"blobs,omitempty"`
	} `json:"storage,omitempty"`

	Queue struct {
		Backend           string   `json:"backend"`
		RequestsName      string   `json:"requests_name"`
		CompletionsName   string   `json:"completions_name"`
		PollInterval      Duration `json:"poll_interval"`
		VisibilityTimeout Duration `json:"visibility_timeout"`
	} `json:"queue,omitempty"`

	Server struct {
		HTTPAddress     string   `json:"http_address"`
		DispatchAddress string   `json:"dispatch_address"`
		RequestTimeout  Duration `json:"request_timeout"`
		IdleTimeout     Duration `json:"idle_timeout"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress     string   `json:"http_address"`
		DispatchAddress string   `json:"dispatch_address"`
		RequestTimeout  Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Workers struct {
		Count int `json:"count"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	s3 := jsonCfg.Storage.Blobs.S3
	cfg := &StructuredConfig{
		App: App{
			PasswordHashKey:      jsonCfg.App.PasswordHashKey,
			TokenSignKey:         jsonCfg.App.TokenSignKey,
			TokenIssuer:          jsonCfg.App.TokenIssuer,
			TokenDuration:        time.Duration(jsonCfg.App.TokenDuration),
			DefaultAdminEmail:    jsonCfg.App.DefaultAdminEmail,
			DefaultAdminPassword: jsonCfg.App.DefaultAdminPassword,
			ToolTimeout:          time.Duration(jsonCfg.App.ToolTimeout),
		},
		Storage: Storage{
			DB: DB{
				Driver: jsonCfg.Storage.DB.Driver,
				DSN:    jsonCfg.Storage.DB.DSN,
			},
			Blobs: Blobs{
				Backend:          jsonCfg.Storage.Blobs.Backend,
				Dir:              jsonCfg.Storage.Blobs.Dir,
				FilesContainer:   jsonCfg.Storage.Blobs.FilesContainer,
				OutputsContainer: jsonCfg.Storage.Blobs.OutputsContainer,
				S3: S3{
					Bucket:       s3.Bucket,
					Region:       s3.Region,
					BaseEndpoint: s3.BaseEndpoint,
					AccessKey:    s3.AccessKey,
					SecretKey:    s3.SecretKey,
				},
			},
		},
		Queue: Queue{
			Backend:           jsonCfg.Queue.Backend,
			RequestsName:      jsonCfg.Queue.RequestsName,
			CompletionsName:   jsonCfg.Queue.CompletionsName,
			PollInterval:      time.Duration(jsonCfg.Queue.PollInterval),
			VisibilityTimeout: time.Duration(jsonCfg.Queue.VisibilityTimeout),
		},
		Server: Server{
			HTTPAddress:     jsonCfg.Server.HTTPAddress,
			DispatchAddress: jsonCfg.Server.DispatchAddress,
			RequestTimeout:  time.Duration(jsonCfg.Server.RequestTimeout),
			IdleTimeout:     time.Duration(jsonCfg.Server.IdleTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:     jsonCfg.Adapter.HTTPAddress,
			DispatchAddress: jsonCfg.Adapter.DispatchAddress,
			RequestTimeout:  time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Workers:      Workers{Count: jsonCfg.Workers.Count},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
