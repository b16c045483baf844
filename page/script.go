package page

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InputMarker is the attribute stamped on the located input control so that
// drivers can address it with a plain CSS selector afterwards.
const (
	InputMarker      = "data-ui-acceptor"
	InputMarkerQuery = `[data-ui-acceptor="input"]`
)

// MarkInputScript locates the input control by CSS or accessible name and
// marks it with InputMarker. Resolves to true when found.
const MarkInputScript = `(name, css) => {
  const attr = 'data-ui-acceptor';
  document.querySelectorAll('[' + attr + '="input"]').forEach(el => el.removeAttribute(attr));
  let el = null;
  if (css) {
    el = document.querySelector(css);
  } else {
    const accessibleName = (c) => {
      const label = c.getAttribute('aria-label');
      if (label) return label.trim();
      const by = c.getAttribute('aria-labelledby');
      if (by) {
        const ref = document.getElementById(by);
        if (ref) return (ref.textContent || '').trim();
      }
      if (c.labels && c.labels.length > 0) return (c.labels[0].textContent || '').trim();
      const ph = c.getAttribute('placeholder');
      return ph ? ph.trim() : '';
    };
    const candidates = Array.from(document.querySelectorAll(
      'textarea, input:not([type]), input[type="text"], input[type="search"], [role="textbox"], [contenteditable="true"]'));
    el = candidates.find(c => accessibleName(c) === name) || null;
  }
  if (!el) return false;
  el.setAttribute(attr, 'input');
  return true;
}`

// SetInputScript replaces the marked control's value and fires input/change
// events the way a user edit would. Resolves to false if the mark is gone.
const SetInputScript = `(text) => {
  const el = document.querySelector('[data-ui-acceptor="input"]');
  if (!el) return false;
  el.focus();
  if (el.isContentEditable) {
    el.textContent = text;
  } else {
    const proto = el.tagName === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
    const desc = Object.getOwnPropertyDescriptor(proto, 'value');
    if (desc && desc.set) {
      desc.set.call(el, text);
    } else {
      el.value = text;
    }
  }
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
  return true;
}`

// FocusInputScript focuses the marked control and moves the caret to the end.
const FocusInputScript = `() => {
  const el = document.querySelector('[data-ui-acceptor="input"]');
  if (!el) return false;
  el.focus();
  if (typeof el.setSelectionRange === 'function') {
    const end = (el.value || '').length;
    el.setSelectionRange(end, end);
  }
  return true;
}`

// ReadOutputScript returns {found, text} for the first output candidate that
// is not, and does not contain, an input control.
const ReadOutputScript = `(css) => {
  const isInput = (el) => el.tagName === 'TEXTAREA' ||
    el.getAttribute('role') === 'textbox' ||
    el.hasAttribute('data-ui-acceptor') ||
    el.querySelector('textarea, [role="textbox"]') !== null;
  const el = Array.from(document.querySelectorAll(css)).find(c => !isInput(c));
  if (!el) return { found: false, text: '' };
  return { found: true, text: el.textContent || '' };
}`

// OutputProbe is the decoded result of ReadOutputScript.
type OutputProbe struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

// Expression renders fn applied to JSON-encoded args as a self-invoking
// JavaScript expression, for drivers that evaluate plain expressions.
func Expression(fn string, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("encoding script argument %d: %w", i, err)
		}
		encoded = append(encoded, string(b))
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}
