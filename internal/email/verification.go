package email

import (
	"bytes"
	"context"
	"fmt"
	htemplate "html/template"
	ttemplate "text/template"

	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
)

const verifySubject = "Confirmá tu dirección de email"

const verifyTextTmpl = `Hola,

Tu cuenta del foro quedó vinculada con tu identidad corporativa, pero el
email todavía no está confirmado. Entrá a {{.Link}} para confirmarlo.

Si no fuiste vos, podés ignorar este mensaje.
`

const verifyHTMLTmpl = `<p>Hola,</p>
<p>Tu cuenta del foro quedó vinculada con tu identidad corporativa, pero el
email todavía no está confirmado.</p>
<p><a href="{{.Link}}">Confirmar email</a></p>
<p>Si no fuiste vos, podés ignorar este mensaje.</p>
`

type verifyVars struct {
	Link string
}

// Verifier despacha el email de verificación post-vinculación. El link
// apunta a la pantalla de email del foro, que es quien confirma.
type Verifier struct {
	sender  Sender
	baseURL string

	htmlTmpl *htemplate.Template
	textTmpl *ttemplate.Template
}

// NewVerifier compila los templates una sola vez.
func NewVerifier(sender Sender, baseURL string) (*Verifier, error) {
	ht, err := htemplate.New("verify_html").Parse(verifyHTMLTmpl)
	if err != nil {
		return nil, fmt.Errorf("email: parse html template: %w", err)
	}
	tt, err := ttemplate.New("verify_text").Parse(verifyTextTmpl)
	if err != nil {
		return nil, fmt.Errorf("email: parse text template: %w", err)
	}
	return &Verifier{sender: sender, baseURL: baseURL, htmlTmpl: ht, textTmpl: tt}, nil
}

// SendVerification renderiza y envía el mensaje a la dirección dada.
func (v *Verifier) SendVerification(ctx context.Context, email string) error {
	vars := verifyVars{Link: v.baseURL + "/me/edit/email"}

	var html, text bytes.Buffer
	if err := v.htmlTmpl.Execute(&html, vars); err != nil {
		return fmt.Errorf("email: render html: %w", err)
	}
	if err := v.textTmpl.Execute(&text, vars); err != nil {
		return fmt.Errorf("email: render text: %w", err)
	}

	if err := v.sender.Send(email, verifySubject, html.String(), text.String()); err != nil {
		return err
	}

	logger.From(ctx).Debug("verification email dispatched",
		logger.Component("email.verifier"),
		logger.Email(email),
	)
	return nil
}
