package mapservice

import (
	"errors"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sensemap/internal/apperr"
	"github.com/starford/sensemap/internal/models"
)

const (
	maxTextLen  = 10000
	maxTitleLen = 500
	maxTags     = 64
	maxTagLen   = 64
)

var finite = validation.By(func(v any) error {
	f, _ := v.(float64)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.New("must be a finite number")
	}
	return nil
})

var tagRules = []validation.Rule{
	validation.Length(0, maxTags),
	validation.Each(validation.Length(1, maxTagLen)),
}

func validateMap(m *models.Map) error {
	return apperr.Invalid(validation.ValidateStruct(m,
		validation.Field(&m.Type, validation.Required, validation.In(models.MapTypePublic, models.MapTypePrivate)),
		validation.Field(&m.Name, validation.Length(0, maxTitleLen)),
		validation.Field(&m.Description, validation.Length(0, maxTextLen)),
		validation.Field(&m.Tags, tagRules...),
	))
}

// validateObject checks the tagged-union shape of o: card fields only on
// CARD objects, gated question/answer text, and a box reference only on BOX
// objects.
func validateObject(o *models.MapObject) error {
	isCard := o.ObjectType == models.ObjectTypeCard
	return apperr.Invalid(validation.ValidateStruct(o,
		validation.Field(&o.ObjectType, validation.Required, validation.In(models.ObjectTypeCard, models.ObjectTypeBox)),
		validation.Field(&o.CardType,
			validation.When(isCard,
				validation.Required,
				validation.In(models.CardTypeNormal, models.CardTypeNote, models.CardTypeQuestion, models.CardTypeAnswer),
			).Else(validation.Empty)),
		validation.Field(&o.Data, validation.When(isCard, validation.Nil).Else(validation.Required)),
		validation.Field(&o.X, finite),
		validation.Field(&o.Y, finite),
		validation.Field(&o.Width, finite, validation.Min(0.0)),
		validation.Field(&o.Height, finite, validation.Min(0.0)),
		validation.Field(&o.Summary, validation.Length(0, maxTextLen)),
		validation.Field(&o.Description, validation.Length(0, maxTextLen)),
		validation.Field(&o.Tags, tagRules...),
		validation.Field(&o.Question,
			validation.When(o.CardType != models.CardTypeQuestion, validation.Empty),
			validation.Length(0, maxTextLen)),
		validation.Field(&o.Answer,
			validation.When(o.CardType != models.CardTypeAnswer, validation.Empty),
			validation.Length(0, maxTextLen)),
	))
}

func validateBox(b *models.Box) error {
	return apperr.Invalid(validation.ValidateStruct(b,
		validation.Field(&b.BoxType, validation.Required, validation.In(models.BoxTypeInfo, models.BoxTypeNotice)),
		validation.Field(&b.Title, validation.Length(0, maxTitleLen)),
		validation.Field(&b.Summary, validation.Length(0, maxTextLen)),
		validation.Field(&b.Tags, tagRules...),
	))
}

func validateScope(sc models.Scope) error {
	return apperr.Invalid(validation.ValidateStruct(&sc,
		validation.Field(&sc.Type, validation.Required, validation.In(models.ScopeWholeMap, models.ScopeBox)),
		validation.Field(&sc.Box, validation.When(sc.Type == models.ScopeBox, validation.Required)),
	))
}
