package handlers

import "github.com/gofiber/fiber/v2"

type LegalHandler struct{}

func NewLegalHandler() *LegalHandler {
	return &LegalHandler{}
}

func (h *LegalHandler) Privacy(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - DevArena</title></head><body>
<h1>Privacy Policy</h1>
<p>DevArena stores your username, email address, the content you publish
(posts, comments, battle code) and derived activity stats (points, rating,
battle record). Passwords are stored as bcrypt hashes. Accounts created with
Google sign-in store the Google account id instead of a password.</p>
<p>We do not sell or share your data. Email addresses are used only for
sign-in and, if you opted in, the daily prompt email, which carries a
one-click unsubscribe link.</p>
<p>To delete your account and content, contact support@devarena.pp.ua.</p>
</body></html>`)
}

func (h *LegalHandler) Terms(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - DevArena</title></head><body>
<h1>Terms of Service</h1>
<p>DevArena is a community for sharing code and competing in friendly
battles. You keep ownership of the code you post; by publishing it you allow
other members to view and comment on it.</p>
<p>Do not post content you do not have the right to share, and do not use
the platform to harass others. Reported content is reviewed by moderators
and may be removed. Repeated violations can lead to account suspension.</p>
<p>The service is provided as is, without warranty of any kind.</p>
</body></html>`)
}
