package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/fiapx/fiapx-frame-sampler/internal/domain/entity"
	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, send: smtp.SendMail, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail string, job *entity.SamplingJob) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	msg := buildFailureMessage(n.from, userEmail, job)

	if err := n.send(addr, nil, n.from, []string{userEmail}, msg); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", userEmail),
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", userEmail),
		zap.String("job_id", job.ID.String()),
	)
	return nil
}

func buildFailureMessage(from, to string, job *entity.SamplingJob) []byte {
	subject := fmt.Sprintf("FIAP X - Frame Extraction Failed [Job %s]", job.ID)

	var body strings.Builder
	body.WriteString("Hello,\r\n\r\n")
	body.WriteString("We could not extract frames from your video.\r\n\r\n")
	fmt.Fprintf(&body, "Job ID: %s\r\n", job.ID)
	fmt.Fprintf(&body, "Video: %s\r\n", job.VideoKey)
	fmt.Fprintf(&body, "Sampling rate: %g fps (%s)\r\n", job.SampleRate, job.Format)
	fmt.Fprintf(&body, "Attempts: %d of %d\r\n", job.Attempt, job.MaxAttempts)
	if job.ErrorKind != entity.KindNone {
		fmt.Fprintf(&body, "Reason: %s\r\n", job.ErrorKind)
	}
	fmt.Fprintf(&body, "Error: %s\r\n\r\n", job.ErrorMessage)
	body.WriteString(hintFor(job.ErrorKind))
	body.WriteString("\r\n\r\n-- FIAP X Frame Sampler")

	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body.String()))
}

func hintFor(kind entity.ErrorKind) string {
	switch kind {
	case entity.KindRateExceedsSource:
		return "Choose a sampling rate no higher than the video's own frame rate."
	case entity.KindInvalidRate:
		return "The sampling rate must be greater than zero."
	case entity.KindInvalidFormat:
		return "Frames can be exported as jpg or png."
	case entity.KindSourceUnreadable, entity.KindDecode:
		return "The video could not be decoded. Please upload it again in a supported format."
	}
	return "Please try again later or contact support."
}
