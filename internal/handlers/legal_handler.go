package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// LegalHandler serves the static legal pages app stores require a public
// URL for.
type LegalHandler struct{}

func NewLegalHandler() *LegalHandler {
	return &LegalHandler{}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - Pairly</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: August 2026</p>
<h2>Information We Collect</h2>
<p>We collect your email address, the profile details you choose to share, the compatibility quiz you author, and your answers to other members' quizzes.</p>
<h2>How We Use Your Information</h2>
<p>Quiz answers are used only to compute your match score with the quiz owner. Your profile is shown to other members according to your visibility settings.</p>
<h2>Messages</h2>
<p>Chat messages are encrypted before they are stored. We do not read your conversations.</p>
<h2>Data Storage</h2>
<p>Your data is stored securely on encrypted servers. We do not sell your personal information to third parties.</p>
<h2>Account Deletion</h2>
<p>You can delete your account at any time from the app settings. Deletion removes your profile, quiz, scores, matches and chat memberships.</p>
<h2>Contact</h2>
<p>For questions about this policy, contact us at support@pairly.app</p>
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - Pairly</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Terms of Service</h1>
<p>Last updated: August 2026</p>
<h2>Acceptance</h2>
<p>By using Pairly, you agree to these terms.</p>
<h2>User Conduct</h2>
<p>You agree not to post offensive, illegal, or harmful content in your profile, quiz, or messages. Blocking a member hides you from them permanently unless you undo it.</p>
<h2>Matching</h2>
<p>Match results are computed from quiz answers and are final; each quiz can be answered once per member.</p>
<h2>Termination</h2>
<p>We may suspend or terminate accounts that violate these terms.</p>
<h2>Contact</h2>
<p>For questions, contact us at support@pairly.app</p>
</body></html>`)
}
