package email

import (
	"bytes"
	"fmt"
	"log"
	"net/smtp"
	"strconv"
	"text/template"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
	FromAddr string
}

func (c *Config) Send(to, subject, body string, html bool) error {
	// Validação de config e destinatário
	if to == "" {
		log.Printf("[email] erro de config: destinatário (to) vazio")
		return fmt.Errorf("destinatário de e-mail vazio")
	}
	if c.Host == "" {
		log.Printf("[email] erro de config: SMTP host vazio (destinatário=%s)", to)
		return fmt.Errorf("SMTP host não configurado")
	}
	if c.FromAddr == "" {
		log.Printf("[email] erro de config: SMTP FromAddr vazio (destinatário=%s)", to)
		return fmt.Errorf("SMTP remetente (From) não configurado")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	log.Printf("[email] enviando para %s assunto=%q via %s (from=%s)", to, subject, addr, c.FromAddr)
	from := c.FromAddr
	if c.FromName != "" {
		from = fmt.Sprintf("%s <%s>", c.FromName, c.FromAddr)
	}
	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"Content-Type": "text/plain; charset=UTF-8",
	}
	if html {
		headers["Content-Type"] = "text/html; charset=UTF-8"
	}
	var buf bytes.Buffer
	for k, v := range headers {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.WriteString(body)
	err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, buf.Bytes())
	if err != nil {
		log.Printf("[email] falha ao enviar para %s assunto=%q: %v", to, subject, err)
		return err
	}
	log.Printf("[email] enviado com sucesso para %s assunto=%q", to, subject)
	return nil
}

// authForSend returns nil when User is empty (e.g. MailHog), so no AUTH is sent.
func (c *Config) authForSend() smtp.Auth {
	if c.User != "" {
		return smtp.PlainAuth("", c.User, c.Pass, c.Host)
	}
	return nil
}

// LogConfigSummary loga um resumo da config SMTP (sem senha) para diagnóstico.
func (c *Config) LogConfigSummary() {
	auth := "não"
	if c.User != "" {
		auth = "sim (user=" + c.User + ")"
	}
	log.Printf("[email] config SMTP: host=%s port=%d from=%q auth=%s", c.Host, c.Port, c.FromAddr, auth)
	if c.Host == "" || c.FromAddr == "" {
		log.Printf("[email] aviso: host ou from vazio; envios podem falhar")
	}
}

// SuggestionLine é uma linha do e-mail de sugestões (data e hora já formatadas).
type SuggestionLine struct {
	Date  string // DD/MM/YYYY
	Time  string // HH:MM
	Type  string
	Score int
}

// SendSuggestionProposal envia ao cliente as sugestões de horário recém-geradas.
func (c *Config) SendSuggestionProposal(to, fullName string, lines []SuggestionLine, reviewURL string) error {
	if to == "" || len(lines) == 0 {
		log.Printf("[email] SendSuggestionProposal: to vazio ou sem sugestões")
		return fmt.Errorf("to vazio ou sem sugestões")
	}
	tpl := `Olá, {{.FullName}},

Temos novas sugestões de horário para você:
{{range .Lines}}
  - {{.Date}} às {{.Time}} ({{.Type}}, compatibilidade {{.Score}}/100){{end}}

Acesse o link abaixo para aceitar ou recusar (as sugestões expiram em 72 horas):

{{.ReviewURL}}`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		log.Printf("[email] SendSuggestionProposal: erro ao parsear template: %v", err)
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]interface{}{
		"FullName":  fullName,
		"Lines":     lines,
		"ReviewURL": reviewURL,
	}); err != nil {
		log.Printf("[email] SendSuggestionProposal: erro ao executar template: %v", err)
		return err
	}
	return c.Send(to, "Novas sugestões de horário - NeuroBalance", b.String(), false)
}

// SendAppointmentAccepted confirma ao cliente o agendamento criado a partir de uma sugestão aceita.
func (c *Config) SendAppointmentAccepted(to, fullName, dateBR, timeHHMM, appointmentType string) error {
	tpl := `Olá, {{.FullName}},

Seu agendamento foi confirmado:

  {{.Type}} em {{.Date}} às {{.Time}}

Até lá!`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]string{
		"FullName": fullName,
		"Date":     dateBR,
		"Time":     timeHHMM,
		"Type":     appointmentType,
	}); err != nil {
		return err
	}
	return c.Send(to, "Agendamento confirmado - NeuroBalance", b.String(), false)
}

func PortFromString(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return 0
}
