package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
)

type ConfigStruct struct {
	Spotify   SpotifyConfig
	Youtube   YoutubeConfig
	Download  DownloadConfig
	Options   Options
	Sentry    SentryConfig
	Platforms []PlatformMarkers
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

func (s *SpotifyConfig) IsEnabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

type YoutubeConfig struct {
	APIKey string
}

type DownloadConfig struct {
	Dir          string
	AudioFormat  string
	AudioQuality int // kbps passed to the audio extractor
	SkipExisting bool
	EmbedLyrics  bool
}

type SentryConfig struct {
	DSN     string
	Release string
}

type Options struct {
	Port     string
	DBPath   string
	LogLevel string
	LogFile  string
}

var Config *ConfigStruct

var supportedFormats = []string{"mp3", "m4a", "opus", "flac", "wav", "aac", "vorbis"}

func NewConfig() {
	config := &ConfigStruct{
		Spotify: SpotifyConfig{
			ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		},
		Youtube: YoutubeConfig{
			APIKey: os.Getenv("YOUTUBE_API_KEY"),
		},
		Download: DownloadConfig{
			Dir:          getDownloadDir(),
			AudioFormat:  getAudioFormat(),
			AudioQuality: getAudioQuality(),
			SkipExisting: os.Getenv("SKIP_EXISTING") == "true",
			EmbedLyrics:  os.Getenv("EMBED_LYRICS") == "true",
		},
		Options: Options{
			Port:     getPort(),
			DBPath:   getDBPath(),
			LogLevel: os.Getenv("LOG_LEVEL"),
			LogFile:  os.Getenv("LOG_FILE"),
		},
		Sentry: SentryConfig{
			DSN:     os.Getenv("SENTRY_DSN"),
			Release: os.Getenv("RELEASE"),
		},
		Platforms: DefaultPlatforms(),
	}

	Config = config
}

func getDownloadDir() string {
	if dir := os.Getenv("DOWNLOAD_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(xdg.UserDirs.Music, "tunedl")
}

func getDBPath() string {
	if path := os.Getenv("DB_PATH"); path != "" {
		return path
	}
	return filepath.Join(xdg.DataHome, "tunedl", "tunedl.db")
}

func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

func getAudioFormat() string {
	format := strings.ToLower(strings.TrimSpace(os.Getenv("AUDIO_FORMAT")))
	for _, supported := range supportedFormats {
		if format == supported {
			return format
		}
	}
	return "mp3"
}

func getAudioQuality() int {
	qualityStr := os.Getenv("AUDIO_QUALITY")
	if qualityStr == "" {
		return 192
	}
	quality, err := strconv.Atoi(qualityStr)
	if err != nil || quality <= 0 {
		return 192
	}
	if quality < 32 {
		return 32
	}
	if quality > 320 {
		return 320 // highest mp3 bitrate
	}
	return quality
}
