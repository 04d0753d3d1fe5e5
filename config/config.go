package config

import (
	log2 "log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glazed-darnut/VerifyBot/common"
	"github.com/glazed-darnut/VerifyBot/db"
	"github.com/glazed-darnut/VerifyBot/pkg/log"
	"github.com/stevenroose/gonfig"
)

type Params struct {
	Address             string `id:"address" short:"a" default:"127.0.0.1:14919" desc:"Admin API listening address"`
	Config              string `id:"config" short:"c" default:"$HOME/.config/verifybot" desc:"VerifyBot configuration directory"`
	BotToken            string `id:"bot-token"`
	ImageProxy          string `id:"image-proxy" desc:"Optional socks5 proxy for fetching attachment images"`
	TessLang            string `id:"tess-lang" default:"eng" desc:"Language model the OCR workers are loaded with"`
	TextWorkers         int    `id:"text-workers" default:"2" desc:"Number of OCR text workers"`
	DetectWorkers       int    `id:"detect-workers" default:"1" desc:"Number of script detection workers"`
	WorkingWidth        int    `id:"working-width" default:"2000" desc:"Width images are resized to before slicing"`
	BandHeight          int    `id:"band-height" default:"900" desc:"Maximum height of an OCR input band"`
	PendingTimeoutMin   int64  `id:"pending-timeout" default:"25" desc:"Minutes before a pending verification lapses"`
	IdleWindowMin       int64  `id:"idle-window" default:"5" desc:"Minutes before an idle guild record is evicted"`
	LogLevel            string `id:"log-level" default:"info" desc:"Optional values: trace, debug, info, warn or error"`
	LogFile             string `id:"log-file" desc:"The path of log file"`
	LogMaxDays          int64  `id:"log-max-days" default:"3" desc:"Maximum number of days to keep log files"`
	LogDisableColor     bool   `id:"log-disable-color"`
	LogDisableTimestamp bool   `id:"log-disable-timestamp"`
}

func (p *Params) PendingTimeout() time.Duration {
	return time.Duration(p.PendingTimeoutMin) * time.Minute
}

func (p *Params) IdleWindow() time.Duration {
	return time.Duration(p.IdleWindowMin) * time.Minute
}

var params Params

func initFunc() {
	err := gonfig.Load(&params, gonfig.Conf{
		FileDisable:       true,
		FlagIgnoreUnknown: false,
		EnvPrefix:         "VERIFY_",
	})
	if err != nil {
		if err.Error() != "unexpected word while parsing flags: '-test.v'" {
			log2.Fatal(err)
		}
	}
	// replace all dots of the filename with underlines
	params.Config = filepath.Join(
		filepath.Dir(params.Config),
		strings.ReplaceAll(filepath.Base(params.Config), ".", "_"),
	)
	// expand '~' with user home
	params.Config, err = common.HomeExpand(params.Config)
	if err != nil {
		log2.Fatal(err)
	}
	params.LogFile, err = common.HomeExpand(params.LogFile)
	if err != nil {
		log2.Fatal(err)
	}
	if strings.Contains(params.Config, "$HOME") {
		if h, err := os.UserHomeDir(); err == nil {
			params.Config = strings.ReplaceAll(params.Config, "$HOME", h)
		}
	}
	if err := os.MkdirAll(params.Config, 0700); err != nil {
		log2.Fatal(err)
	}
	logWay := "console"
	if params.LogFile != "" {
		logWay = "file"
	}
	log.InitLog(logWay, params.LogFile, params.LogLevel, params.LogMaxDays, params.LogDisableColor, params.LogDisableTimestamp)
	db.InitDB(params.Config)
}

var once sync.Once

func GetConfig() *Params {
	once.Do(initFunc)
	return &params
}
