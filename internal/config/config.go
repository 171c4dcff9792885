package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sunr3d/project-intake/models"
)

type Config struct {
	HTTPPort    string        `envconfig:"HTTP_PORT" default:"8080"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string        `envconfig:"LOG_FORMAT" default:"json"`

	UploadDir    string `envconfig:"UPLOAD_DIR" default:"/tmp/intake_uploads"`
	WorkspaceDir string `envconfig:"WORKSPACE_DIR" default:"/tmp/intake_workspace"`

	MaxUploadSize      int64 `envconfig:"MAX_UPLOAD_SIZE" default:"524288000"`
	MaxExpandedSize    int64 `envconfig:"MAX_EXPANDED_SIZE" default:"1073741824"`
	MaxFilenameLength  int   `envconfig:"MAX_FILENAME_LENGTH" default:"255"`
	SampleSizeLimit    int64 `envconfig:"SAMPLE_SIZE_LIMIT" default:"102400"`
	LargeFileThreshold int64 `envconfig:"LARGE_FILE_THRESHOLD" default:"10485760"`
	FileContentLimit   int64 `envconfig:"FILE_CONTENT_LIMIT" default:"1048576"`

	ArchiveExtensions []string          `envconfig:"ARCHIVE_EXTENSIONS" default:"zip,tar,gz,tgz,bz2,tbz2,xz,txz,7z"`
	AllowedExtensions []string          `envconfig:"ALLOWED_EXTENSIONS" default:"py,js,ts,jsx,tsx,html,css,scss,sass,less,java,cpp,c,h,hpp,cs,php,rb,go,rs,swift,kt,scala,clj,hs,ml,fs,vb,pas,pl,r,lua,json,xml,yaml,yml,toml,ini,cfg,conf,csv,tsv,sql,db,sqlite,sqlite3,md,rst,txt,rtf,tex,adoc,org,sh,bash,zsh,fish,ps1,bat,cmd,dockerfile,makefile,cmake,gradle,maven,zip,tar,gz,tgz,bz2,tbz2,xz,txz,7z,rar,wav,mp3,m4a,flac,ogg,aac,mp4,mov,avi,mkv,webm,flv,jpg,jpeg,png,gif,bmp,tiff,webp,svg,pdf,doc,docx,xls,xlsx,ppt,pptx"`
	CategoryOverrides map[string]string `envconfig:"CATEGORY_OVERRIDES"`

	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"1h"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"30m"`
}

var ErrInvalidConfig = errors.New("некорректная конфигурация")

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось прочитать переменные окружения: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	limits := map[string]int64{
		"MAX_UPLOAD_SIZE":      c.MaxUploadSize,
		"MAX_EXPANDED_SIZE":    c.MaxExpandedSize,
		"MAX_FILENAME_LENGTH":  int64(c.MaxFilenameLength),
		"SAMPLE_SIZE_LIMIT":    c.SampleSizeLimit,
		"LARGE_FILE_THRESHOLD": c.LargeFileThreshold,
		"FILE_CONTENT_LIMIT":   c.FileContentLimit,
	}
	for name, v := range limits {
		if v <= 0 {
			return fmt.Errorf("%w: %s должен быть положительным, получено %d", ErrInvalidConfig, name, v)
		}
	}

	for ext, category := range c.CategoryOverrides {
		if !models.Category(strings.ToLower(category)).Valid() {
			return fmt.Errorf("%w: неизвестная категория %q для %q", ErrInvalidConfig, category, ext)
		}
	}

	if c.SessionTTL <= 0 || c.CleanupInterval <= 0 {
		return fmt.Errorf("%w: SESSION_TTL и CLEANUP_INTERVAL должны быть положительными", ErrInvalidConfig)
	}

	if c.UploadDir == "" || c.WorkspaceDir == "" {
		return fmt.Errorf("%w: UPLOAD_DIR и WORKSPACE_DIR обязательны", ErrInvalidConfig)
	}
	return nil
}
