package email

import (
	"fmt"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// ResendService maneja el envío de correos electrónicos usando Resend API
type ResendService struct {
	client    *resend.Client
	fromEmail string
	baseURL   string
	logger    *logrus.Logger
}

// NewResendService crea una nueva instancia de ResendService
func NewResendService(apiKey string, fromEmail string, baseURL string, logger *logrus.Logger) *ResendService {
	return &ResendService{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// SendCertificateIssued envía el certificado emitido al participante,
// con el PDF adjunto y el enlace público de verificación
func (s *ResendService) SendCertificateIssued(record *models.CertificateRecord, pdfData []byte) error {
	if record.RecipientEmail == nil {
		return nil
	}

	subject := fmt.Sprintf("Tu certificado - %s", record.EventName)
	verifyURL := fmt.Sprintf("%s/v1/verify/%s", s.baseURL, record.VerificationCode)

	htmlContent := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Certificado</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 8px; }
        .content { padding: 20px; }
        .button { display: inline-block; padding: 12px 24px; background-color: #007bff; color: white; text-decoration: none; border-radius: 5px; margin: 10px 5px; }
        .code { font-family: monospace; font-size: 16px; font-weight: bold; letter-spacing: 1px; }
        .footer { margin-top: 30px; padding: 20px; background-color: #f8f9fa; border-radius: 8px; font-size: 14px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Certificado emitido</h1>
            <p>%s</p>
        </div>

        <div class="content">
            <h2>Hola %s,</h2>

            <p>Tu certificado de participación ha sido emitido. Lo encontrarás adjunto a este correo.</p>

            <p>Cualquier persona puede validar su autenticidad con el código de verificación:</p>
            <p class="code">%s</p>

            <div style="text-align: center; margin: 20px 0;">
                <a href="%s" class="button">Verificar certificado</a>
            </div>
        </div>

        <div class="footer">
            <p>Este es un correo automático del sistema de certificados.</p>
        </div>
    </div>
</body>
</html>`,
		record.EventName,
		record.FullName,
		record.VerificationCode,
		verifyURL)

	request := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{*record.RecipientEmail},
		Subject: subject,
		Html:    htmlContent,
		Attachments: []*resend.Attachment{
			{
				Filename: fmt.Sprintf("certificado-%s.pdf", record.VerificationCode),
				Content:  pdfData,
			},
		},
	}

	result, err := s.client.Emails.Send(request)
	if err != nil {
		return fmt.Errorf("error sending email via Resend: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email_id":       result.Id,
		"to":             *record.RecipientEmail,
		"certificate_id": record.ID,
	}).Info("Certificate email sent successfully via Resend")

	return nil
}
