// Package fallback renders the static placeholder document returned when the
// text-generation provider cannot produce one.
package fallback

import (
	"strings"

	"github.com/jonathan/policy-generator/internal/types"
)

const documentTemplate = `# {L} for Your Business

This {l} is generated based on the following business description:

"{D}"

## 1. Introduction

Welcome to our service. This document outlines how we collect, use, and protect your information.

## 2. Information Collection

We collect information that you provide directly to us, such as when you create an account, subscribe to our service, or contact us for support.

## 3. Use of Information

We use the information we collect to provide, maintain, and improve our services, to develop new ones, and to protect our company and users.

## 4. Information Sharing

We do not share your personal information with companies, organizations, or individuals outside of our company except in the following cases: with your consent, with domain administrators, for legal reasons, or in case of a merger or acquisition.

## 5. Security

We work hard to protect our users from unauthorized access to or unauthorized alteration, disclosure, or destruction of information we hold.

## 6. Changes

Our {l} may change from time to time. We will post any privacy policy changes on this page.

## 7. Contact Us

If you have any questions about our {l}, please contact us.`

// Render builds the placeholder document for a category label and description.
func Render(label, description string) string {
	return strings.NewReplacer(
		"{L}", label,
		"{l}", strings.ToLower(label),
		"{D}", description,
	).Replace(documentTemplate)
}

// Document renders the placeholder for a policy type.
func Document(policyType types.PolicyType, description string) string {
	return Render(policyType.Label(), description)
}
