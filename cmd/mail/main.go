package main

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

type mailTemplate struct {
	file    string
	subject string
}

var mailTemplates = map[string]mailTemplate{
	domain.MailTypeCreateUser:          {"templates/new_account_email.html", "ECNC 排座系统 - 账户信息"},
	domain.MailTypeResetPassword:       {"templates/reset_password_otp_email.html", "ECNC 排座系统 - 重置密码"},
	domain.MailTypeArrangementFinished: {"templates/arrangement_finished_email.html", "ECNC 排座系统 - 自动排座完成"},
}

// mailer 根据消息类型选择模板并生成邮件
type mailer struct {
	from      string
	templates map[string]*template.Template
}

// newMailer 启动时解析所有模板，模板有误时直接退出
func newMailer(from string) (*mailer, error) {
	templates := make(map[string]*template.Template, len(mailTemplates))
	for mailType, mt := range mailTemplates {
		tmpl, err := template.ParseFS(templateFS, mt.file)
		if err != nil {
			return nil, fmt.Errorf("解析模板 %s 失败: %w", mt.file, err)
		}
		templates[mailType] = tmpl
	}
	return &mailer{from: from, templates: templates}, nil
}

func (m *mailer) render(mailType string, data any) (string, error) {
	tmpl, ok := m.templates[mailType]
	if !ok {
		return "", fmt.Errorf("不支持的邮件类型: %s", mailType)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// build 把队列中的消息转换为待发送的邮件
func (m *mailer) build(body []byte) (*mail.Msg, error) {
	var message domain.MailMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	html, err := m.render(message.Type, message.Data)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	msg.Subject(mailTemplates[message.Type].subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	return msg, nil
}

func newSMTPClient(cfg *config.Config) (*mail.Client, error) {
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		return nil, err
	}

	// 启动时确认能连上邮件服务器
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(ctx); err != nil {
		return nil, err
	}

	return client, nil
}

// consume 处理消息直到 ctx 被取消或通道关闭
// 无法构建的消息直接丢弃，发送失败的消息重新入队
func consume(ctx context.Context, logger *slog.Logger, m *mailer, client *mail.Client, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-msgs:
			if !ok {
				logger.Warn("消息通道已关闭")
				return
			}

			msg, err := m.build(delivery.Body)
			if err != nil {
				logger.Error("无法构建邮件", "error", err)
				_ = delivery.Nack(false, false)
				continue
			}

			if err := client.DialAndSend(msg); err != nil {
				logger.Error("邮件发送失败", "error", err)
				_ = delivery.Nack(false, true)
				continue
			}

			_ = delivery.Ack(false)
			logger.Info("邮件已发送")
		}
	}
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("mail worker 异常退出", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("无法读取配置文件: %w", err)
	}

	m, err := newMailer(cfg.Email.SMTP.Username)
	if err != nil {
		return err
	}

	client, err := newSMTPClient(cfg)
	if err != nil {
		return fmt.Errorf("无法连接到邮件服务器: %w", err)
	}
	defer client.Close()

	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return fmt.Errorf("无法连接到 RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("无法创建通道: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		domain.MailQueue,
		true,  // 持久化
		false, // 没有消费者时不自动删除
		false, // 允许多个消费者
		false, // 等待 RabbitMQ 确认
		nil,
	)
	if err != nil {
		return fmt.Errorf("无法声明队列: %w", err)
	}

	// 一次只取一条，发送失败重新入队时不会堆积在本地
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("无法设置 QoS: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("无法消费消息: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consume(ctx, logger, m, client, msgs)
	}()

	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-ctx.Done()

	logger.Info("正在关闭 mail worker...")
	wg.Wait()
	logger.Info("mail worker 已成功关闭")
	return nil
}
