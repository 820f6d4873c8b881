package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"ecommerce-api/internal/models"
)

// SMTP envía los correos transaccionales de la tienda. Los servicios lo
// consumen detrás de interfaces propias, así los tests no necesitan un
// servidor de correo.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTP(host string, port int, user, pass, from string) *SMTP {
	return &SMTP{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

func (m *SMTP) SendOrderConfirmation(to string, order *models.Order) error {
	body := fmt.Sprintf(
		"Recebemos seu pedido %s.\n\nTotal: %s %.2f\nForma de pagamento: %s\n\nObrigado pela compra!",
		order.ID.Hex(), order.Currency, float64(order.TotalCents)/100, order.PaymentMethod,
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Confirmação do pedido "+order.ID.Hex())
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}

func (m *SMTP) SendPasswordReset(to, token string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Redefinição de senha")
	msg.SetBody("text/plain",
		"Use o código abaixo para redefinir sua senha. Ele expira em 1 hora.\n\n"+token)

	return m.dialer.DialAndSend(msg)
}
