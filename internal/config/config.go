package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
	googleoauth "golang.org/x/oauth2/google"
)

const envPrefix = "GCALBRIDGE_"

type Application struct {
	Port           int            `koanf:"port"`
	Host           string         `koanf:"host"`
	Google         Google         `koanf:"google"`
	OAuth2         OAuth2         `koanf:"oauth2"`
	ServiceAccount ServiceAccount `koanf:"serviceaccount"`
	ListQuery      ListQuery      `koanf:"listquery"`
	SampleEvent    SampleEvent    `koanf:"sampleevent"`
	Metrics        Metrics        `koanf:"metrics"`
}

type Google struct {
	CalendarId string `koanf:"calendarid"`
	// Timeout bounds every upstream Calendar API call. Zero disables it.
	Timeout time.Duration `koanf:"timeout"`
}

type OAuth2 struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
	RedirectUrl  string `koanf:"redirecturl"`
	AuthUrl      string `koanf:"authurl"`
	TokenUrl     string `koanf:"tokenurl"`
}

type ServiceAccount struct {
	ClientEmail string `koanf:"clientemail"`
	PrivateKey  string `koanf:"privatekey"`
	TokenUrl    string `koanf:"tokenurl"`
}

// ListQuery holds the fixed parameters sent with every events listing.
type ListQuery struct {
	MaxResults   int64  `koanf:"maxresults"`
	SingleEvents bool   `koanf:"singleevents"`
	OrderBy      string `koanf:"orderby"`
}

// SampleEvent is the event inserted by the create-event routes.
type SampleEvent struct {
	Summary     string `koanf:"summary"`
	Description string `koanf:"description"`
	Start       string `koanf:"start"`
	End         string `koanf:"end"`
	TimeZone    string `koanf:"timezone"`
	ColorId     string `koanf:"colorid"`
}

type Metrics struct {
	Enabled bool `koanf:"enabled"`
}

// legacyEnv maps the plain variable names used by earlier deployments to config keys.
var legacyEnv = map[string]string{
	"PORT":                       "port",
	"GCAL_CALENDAR_ID":           "google.calendarid",
	"OAUTH2_CREDS_CLIENT_ID":     "oauth2.clientid",
	"OAUTH2_CREDS_CLIENT_SECRET": "oauth2.clientsecret",
	"OAUTH2_CREDS_REDIRECT_URI":  "oauth2.redirecturl",
	"SERVICE_CREDS_CLIENT_EMAIL": "serviceaccount.clientemail",
	"SERVICE_CREDS_PRIVATE_KEY":  "serviceaccount.privatekey",
}

func Defaults() Application {
	return Application{
		Port: 3000,
		Host: "http://localhost:3000",
		Google: Google{
			CalendarId: "primary",
			Timeout:    30 * time.Second,
		},
		OAuth2: OAuth2{
			AuthUrl:  googleoauth.Endpoint.AuthURL,
			TokenUrl: googleoauth.Endpoint.TokenURL,
		},
		ServiceAccount: ServiceAccount{
			TokenUrl: googleoauth.JWTTokenURL,
		},
		ListQuery: ListQuery{
			MaxResults:   10,
			SingleEvents: true,
			OrderBy:      "startTime",
		},
		SampleEvent: SampleEvent{
			Summary:     "Sample Event",
			Description: "Eiusmod nulla eiusmod occaecat consequat sit eu exercitation nisi.",
			Start:       "2024-09-22T19:30:00+07:00",
			End:         "2024-09-22T20:30:00+07:00",
			TimeZone:    "Asia/Jakarta",
			ColorId:     "4",
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}

// Load reads configuration from defaults, the YAML file at path, the dotenv file at
// envFile and finally the process environment. Later sources win.
func Load(path string, envFile string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	if envFile != "" {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Errorf("error loading dotenv file %s: %v", envFile, err)
				return Application{}, err
			}
			log.Debugf("No dotenv file at %s", envFile)
		} else {
			log.Infof("Loaded environment from file: %s", envFile)
		}
	}

	// unknown or empty variables map to "" and are skipped
	err = k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			if v == "" {
				return "", nil
			}
			return legacyEnv[k], v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from legacy envs: %v", err)
		return Application{}, err
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			if v == "" {
				return "", nil
			}
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	if app.OAuth2.RedirectUrl == "" {
		app.OAuth2.RedirectUrl = strings.TrimSuffix(app.Host, "/") + "/oauth2callback"
	}

	return app, nil
}
