package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 是一个全局的、配置好的 logrus 实例
// 默认只输出到控制台，InitLogger 之后才会同时写文件；测试里不调用 InitLogger 也能直接用
var Log = logrus.New()

// InitLogger 初始化全局的Logger实例：1、JSON格式 2、控制台+滚动日志文件 3、按配置设置级别
func InitLogger(level, file string) {
	Log = logrus.New()

	// 结构化日志，便于后续使用ELK、Loki等工具进行分析
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if file == "" {
		file = "tubely.log"
	}
	// lumberjack负责日志文件的切割，不用再自己os.OpenFile
	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     7, // 天
		Compress:   true,
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, rotating))

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
