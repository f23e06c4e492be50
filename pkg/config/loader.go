package config

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// loader resolves configuration from defaults and environment variables.
type loader struct {
	koanf     *koanf.Koanf
	validator *validator.Validate
}

// NewLoader creates a configuration loader with validation support.
func NewLoader() *loader {
	return &loader{
		koanf:     koanf.New("."),
		validator: validator.New(),
	}
}

// Load resolves the configuration: defaults first, environment on top.
func (l *loader) Load(_ context.Context) (*Config, error) {
	if err := l.koanf.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	envToPath := envMappings()
	if err := l.koanf.Load(env.Provider(".", env.Opt{
		Prefix: "",
		TransformFunc: func(key string, value string) (string, any) {
			configPath, exists := envToPath[key]
			if !exists {
				// Drop unrelated environment variables.
				return "", nil
			}
			if strings.Contains(value, ",") && isSliceKey(configPath) {
				return configPath, splitAndTrim(value)
			}
			return configPath, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return l.unmarshalAndValidate()
}

func (l *loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.koanf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.validator.Struct(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// envMappings builds the ENV_VAR -> config path table from `env` struct tags.
func envMappings() map[string]string {
	mappings := make(map[string]string)
	collectEnvMappings(reflect.TypeOf(Config{}), "", mappings)
	return mappings
}

func collectEnvMappings(t reflect.Type, prefix string, out map[string]string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		koanfTag := strings.Split(field.Tag.Get("koanf"), ",")[0]
		if koanfTag == "" {
			continue
		}
		path := koanfTag
		if prefix != "" {
			path = prefix + "." + koanfTag
		}
		if field.Type.Kind() == reflect.Struct {
			collectEnvMappings(field.Type, path, out)
			continue
		}
		if envTag := field.Tag.Get("env"); envTag != "" {
			out[envTag] = path
		}
	}
}

func isSliceKey(path string) bool {
	return strings.HasSuffix(path, "cors_origins")
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
