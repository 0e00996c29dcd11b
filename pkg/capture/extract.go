package capture

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-templatecontainer/pkg/declarations"
	"github.com/goliatone/go-templatecontainer/pkg/fragment"
)

// Attribute names read from reserved script elements.
const (
	AttrID         = "id"
	AttrName       = "name"
	AttrEmitterKey = "emitterKey"
	AttrInsertAt   = "insertAt"
)

func (s *Scope) extract(content string) error {
	nodes, err := s.cfg.parser.Parse(content)
	if err != nil {
		return fmt.Errorf("capture: parse captured markup: %w", err)
	}

	implicitAdded := false
	for _, node := range nodes {
		switch {
		case s.isReserved(node):
			if err := s.addScriptTemplate(node); err != nil {
				return err
			}
		case node.Kind == fragment.KindElement, node.Kind == fragment.KindText && !node.IsBlank():
			if implicitAdded {
				return newError(ErrDuplicateTemplate, reasonMultipleTemplates, node.Describe())
			}
			if strings.TrimSpace(s.opts.Name) == "" {
				return newError(ErrMissingTemplateInformation, reasonNameRequired, node.Describe())
			}
			if strings.TrimSpace(s.opts.EmitterKey) == "" {
				return newError(ErrMissingTemplateInformation, reasonEmitterRequired, node.Describe())
			}
			implicitAdded = true

			s.register(declarations.TemplateDeclaration{
				Name:       s.opts.Name,
				Template:   strings.TrimSpace(node.Inner),
				EmitterKey: s.opts.EmitterKey,
			}, s.opts.InsertAt)
		}
	}
	return nil
}

func (s *Scope) isReserved(node fragment.Node) bool {
	return node.Kind == fragment.KindElement && strings.EqualFold(node.Tag, s.cfg.reservedTag)
}

func (s *Scope) addScriptTemplate(node fragment.Node) error {
	if node.IsBlank() {
		return nil
	}

	name := attrValue(node, AttrID)
	if name == "" {
		name = attrValue(node, AttrName)
		if name == "" {
			return newError(ErrMissingTemplateInformation, reasonNameRequired, node.Describe())
		}
	}

	emitterKey := attrValue(node, AttrEmitterKey)
	if emitterKey == "" {
		emitterKey = s.opts.EmitterKey
	}
	if strings.TrimSpace(emitterKey) == "" {
		return newError(ErrMissingTemplateInformation, reasonEmitterRequired, node.Describe())
	}

	decl := declarations.TemplateDeclaration{
		Name:       name,
		Template:   strings.TrimSpace(node.Inner),
		EmitterKey: emitterKey,
	}

	override, hasOverride := parseInsertAt(node)
	if hasOverride {
		s.register(decl, &override)
		if s.cfg.singleRegistration {
			return nil
		}
	}
	s.register(decl, s.opts.InsertAt)
	return nil
}

func (s *Scope) register(decl declarations.TemplateDeclaration, insertAt *int) {
	s.host.AddDeclaration(decl, insertAt)
	s.logger.Debug("template declaration registered",
		zap.String("name", decl.Name),
		zap.String("emitter", decl.EmitterKey),
		zap.Intp("insert_at", insertAt),
	)
}

// attrValue returns the trimmed attribute value; blank counts as absent.
func attrValue(node fragment.Node, key string) string {
	value, _ := node.Attr(key)
	return strings.TrimSpace(value)
}

// parseInsertAt reads the insertAt attribute. Missing, malformed and negative
// values mean no override.
func parseInsertAt(node fragment.Node) (int, bool) {
	raw, ok := node.Attr(AttrInsertAt)
	if !ok {
		return 0, false
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}
