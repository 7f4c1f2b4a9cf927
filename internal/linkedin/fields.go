package linkedin

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-easyapply-automation/internal/board"
	"go-easyapply-automation/internal/question"
)

const jsChoiceLabels = `(el, sel) => Array.from(el.querySelectorAll(sel)).map(input => {
	const label = (input.id && el.querySelector('label[for="' + CSS.escape(input.id) + '"]')) || input.closest('label');
	return (label ? label.innerText : input.value || '').trim();
})`

const jsFillText = `(el, value) => {
	const input = el.matches('input, textarea') ? el
		: el.querySelector('textarea, input:not([type=radio]):not([type=checkbox]):not([type=hidden]):not([type=file])');
	if (!input) return false;
	const proto = input.tagName === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
	Object.getOwnPropertyDescriptor(proto, 'value').set.call(input, value);
	input.dispatchEvent(new Event('input', { bubbles: true }));
	input.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

const jsFillSelect = `(el, value) => {
	const select = el.querySelector('select');
	if (!select) return false;
	const want = value.trim().toLowerCase();
	const option = Array.from(select.options).find(o => o.text.trim().toLowerCase() === want);
	if (!option) return false;
	select.value = option.value;
	select.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

const jsFillRadio = `(el, value) => {
	const want = value.trim().toLowerCase();
	for (const input of el.querySelectorAll('input[type=radio]')) {
		const label = (input.id && el.querySelector('label[for="' + CSS.escape(input.id) + '"]')) || input.closest('label');
		const text = (label ? label.innerText : input.value || '').trim().toLowerCase();
		if (text === want) {
			(label || input).click();
			return true;
		}
	}
	return false;
}`

const jsFillCheckbox = `(el) => {
	const box = el.querySelector('input[type=checkbox]');
	if (!box) return false;
	if (!box.checked) {
		box.checked = true;
		box.dispatchEvent(new Event('change', { bubbles: true }));
	}
	return true;
}`

// Fields lists the inputs of the current dialog page in DOM order.
func (b *Board) Fields(context.Context) []board.Field {
	groups, err := b.dialog().Locator(selFormElement).All()
	if err != nil {
		log.Printf("  ⚠️ Error listing form fields: %v", err)
		return nil
	}

	var fields []board.Field
	seen := map[string]bool{}
	for _, g := range groups {
		f, ok := readField(g)
		if !ok {
			continue
		}
		key := string(f.Kind) + "|" + f.Label
		if seen[key] {
			continue
		}
		seen[key] = true
		fields = append(fields, f)
	}
	return fields
}

func readField(g playwright.Locator) (board.Field, bool) {
	f := board.Field{Handle: g}

	switch {
	case count(g.Locator(selSelect)) > 0:
		f.Kind = board.Select
		opts, err := g.Locator(selSelect + " option").AllInnerTexts()
		if err == nil {
			for _, o := range opts {
				f.Options = append(f.Options, strings.TrimSpace(o))
			}
		}
	case count(g.Locator(selRadio)) > 0:
		f.Kind = board.Radio
		f.Options = choiceLabels(g, selRadio)
	case count(g.Locator(selCheckbox)) > 0:
		f.Kind = board.Checkbox
		f.Options = choiceLabels(g, selCheckbox)
	case count(g.Locator(selTextarea)) > 0:
		f.Kind = board.Textarea
	case count(g.Locator(selTel)) > 0:
		f.Kind = board.Tel
	case count(g.Locator(selEmail)) > 0:
		f.Kind = board.Email
	case count(g.Locator(selTextInput)) > 0:
		f.Kind = board.Text
	default:
		return f, false
	}

	label := text(g.Locator(selLegend))
	if label == "" {
		label = text(g.Locator(selLabel))
	}
	f.Label = question.CollapseLabel(label)
	return f, f.Label != ""
}

func choiceLabels(g playwright.Locator, sel string) []string {
	res, err := g.Evaluate(jsChoiceLabels, sel)
	if err != nil {
		return nil
	}
	items, _ := res.([]interface{})
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, question.CollapseLabel(s))
		}
	}
	return out
}

// Fill writes value into f the way a user would, firing the events the form listens to.
func (b *Board) Fill(_ context.Context, f board.Field, value string) error {
	g, ok := f.Handle.(playwright.Locator)
	if !ok {
		return fmt.Errorf("field %q has no locator", f.Label)
	}

	var script string
	switch f.Kind {
	case board.Select:
		script = jsFillSelect
	case board.Radio:
		script = jsFillRadio
	case board.Checkbox:
		script = jsFillCheckbox
	default:
		script = jsFillText
	}

	res, err := g.Evaluate(script, value)
	if err != nil {
		return fmt.Errorf("failed to fill %q: %w", f.Label, err)
	}
	if done, _ := res.(bool); !done {
		return fmt.Errorf("no %s input accepted %q for %q", f.Kind, value, f.Label)
	}
	return nil
}
