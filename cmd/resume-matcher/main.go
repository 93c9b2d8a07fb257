package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-matcher-go/internal/api/handler"
	"resume-matcher-go/internal/api/router"
	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/gen"
	"resume-matcher-go/internal/llm"
	"resume-matcher-go/internal/matcher"
	"resume-matcher-go/internal/outbox"
	"resume-matcher-go/internal/parser"
	"resume-matcher-go/internal/ratelimit"
	"resume-matcher-go/internal/report"
	"resume-matcher-go/internal/storage"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/spf13/pflag"

	appCoreLogger "resume-matcher-go/internal/logger"

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
)

// @title Resume Matcher API
// @version 1.0
// @description JD与简历批量语义匹配服务
// @BasePath /api/v1
func main() {
	initLogger()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// MySQL与RabbitMQ同时可用时，完成事件走发件箱，由中继投递
	var messageRelay *outbox.MessageRelay
	if storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		relayLogger := log.New(appCoreLogger.Logger, "[MessageRelay] ", log.LstdFlags|log.Lshortfile)
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ, relayLogger)
		messageRelay.Start()
		glog.Info("消息中继服务已启动")
	}

	// 向量模型不可用时服务无法提供任何匹配能力，直接退出
	sharedEmbedder, err := parser.SharedEmbedder(cfg.Embedding)
	if err != nil {
		glog.Fatalf("初始化Embedder失败: %v", err)
	}
	glog.Infof("Embedder初始化成功, 模型: %s", sharedEmbedder.ModelVersion())

	var embedder embedding.Embedder = sharedEmbedder
	if cfg.Embedding.QPM > 0 {
		embedder = ratelimit.NewRateLimitedEmbedder(sharedEmbedder, cfg.Embedding.QPM)
		glog.Infof("Embedder限流已启用, QPM: %d", cfg.Embedding.QPM)
	}

	extractor, err := parser.NewEinoPDFTextExtractor(ctx, parser.WithEinoLogger(log.New(os.Stderr, "[EinoPDFMain] ", log.LstdFlags)))
	if err != nil {
		glog.Fatalf("创建PDF提取器失败: %v", err)
	}
	glog.Info("PDF提取器初始化成功")

	var converterLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		converterLogger = log.New(os.Stderr, "[ConverterMain] ", log.LstdFlags|log.Lshortfile)
	} else {
		converterLogger = log.New(io.Discard, "", 0)
	}
	converter := buildConverter(cfg, converterLogger)

	engineOptions := []matcher.EngineOption{
		matcher.WithModelVersion(sharedEmbedder.ModelVersion()),
		matcher.WithEngineLogger(appCoreLogger.Logger),
	}
	if storageManager.Redis != nil {
		engineOptions = append(engineOptions,
			matcher.WithVectorCache(storageManager.Redis),
			matcher.WithDeduper(storageManager.Redis),
		)
		glog.Info("JD向量缓存与文本去重已启用")
	}
	engine := matcher.NewEngine(extractor, converter, embedder, engineOptions...)
	glog.Info("匹配引擎初始化成功")

	exporterOptions := []report.ExporterOption{
		report.WithExporterLogger(appCoreLogger.Logger),
	}
	if cfg.Report.SheetName != "" {
		exporterOptions = append(exporterOptions, report.WithSheetName(cfg.Report.SheetName))
	}
	if converter != nil {
		exporterOptions = append(exporterOptions, report.WithConverter(converter))
	}
	exporter := report.NewExporter(exporterOptions...)
	glog.Info("报表导出器初始化成功")

	matchHandler := handler.NewMatchHandler(cfg, storageManager, engine, exporter)
	runHandler := handler.NewRunHandler(cfg, storageManager)
	genHandler := buildGenHandler(cfg)

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, matchHandler, runHandler, genHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// buildConverter 组装DOCX转换链：优先远程转换服务，失败回退本地pandoc
func buildConverter(cfg *config.Config, logger *log.Logger) parser.DocumentConverter {
	var converters []parser.DocumentConverter
	if cfg.Converter.ServerURL != "" {
		var options []parser.GotenbergOption
		if cfg.Converter.Timeout > 0 {
			options = append(options, parser.WithGotenbergTimeout(time.Duration(cfg.Converter.Timeout)*time.Second))
		}
		options = append(options, parser.WithGotenbergLogger(logger))
		converters = append(converters, parser.NewGotenbergConverter(cfg.Converter.ServerURL, options...))
		glog.Info("使用远程文档转换服务")
	}
	converters = append(converters, parser.NewPandocConverter(cfg.Converter.PandocPath, parser.WithPandocLogger(logger)))
	return parser.NewFallbackConverter(logger, converters...)
}

// buildGenHandler 组装生成处理器，未配置LLM密钥时生成接口不可用
func buildGenHandler(cfg *config.Config) *handler.GenHandler {
	if cfg.LLM.APIKey == "" {
		glog.Warn("未配置LLM API密钥，求职信与测试用例生成接口不可用")
		return handler.NewGenHandler(nil, nil)
	}

	chatModel, err := llm.NewOpenAIChatModel(cfg.LLM)
	if err != nil {
		glog.Warnf("初始化聊天模型失败: %v, 生成接口不可用", err)
		return handler.NewGenHandler(nil, nil)
	}
	glog.Info("聊天模型初始化成功")

	coverLetter := gen.NewCoverLetterGenerator(chatModel, appCoreLogger.Logger)
	testCases := gen.NewTestCaseGenerator(chatModel, appCoreLogger.Logger)
	return handler.NewGenHandler(coverLetter, testCases)
}

func initLogger() {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	var writer io.Writer = consoleWriter
	if logFile, err := os.OpenFile("logs/app.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		writer = zerolog.MultiLevelWriter(consoleWriter, logFile)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimeFieldFormat = "15:04:05"

	logger := zerolog.New(writer).With().Timestamp().Caller().Logger()
	appCoreLogger.Logger = logger
	zlog.Logger = logger

	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	glog.SetLevel(glog.LevelInfo)
}
