package notify

import (
	"errors"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

type Mailer struct {
	host     string
	port     int
	from     string
	password string
	log      *logrus.Logger
}

// Default is the shared mailer, wired in main. Nil when SMTP is not
// configured; sends become no-ops then.
var Default *Mailer

func NewMailer(host string, port int, from, password string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		from:     from,
		password: password,
		log:      logrus.New(),
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.host, m.port, m.from, m.password)
	return d.DialAndSend(msg)
}

// SendTemplate loads a stored template by name, renders the variable map into
// subject and body, and delivers on a goroutine. Delivery failures are logged,
// not surfaced: notification is best-effort.
func SendTemplate(db *gorm.DB, to, name string, vars map[string]string) {
	if Default == nil || to == "" {
		return
	}

	var tpl EmailTemplate
	if result := db.First(&tpl, "name = ?", name); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			Default.log.WithField("template", name).Warn("email template not found")
		} else {
			Default.log.WithField("template", name).WithError(result.Error).Error("could not load email template")
		}
		return
	}

	subject := Render(tpl.Subject, vars)
	body := Render(tpl.Body, vars)

	go func() {
		if err := Default.Send(to, subject, body); err != nil {
			Default.log.WithFields(logrus.Fields{
				"template": name,
				"to":       to,
			}).WithError(err).Error("could not send email")
		}
	}()
}
