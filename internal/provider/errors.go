package provider

import "fmt"

// UnknownProviderError is returned when a label is not in the registry.
type UnknownProviderError struct {
	Label string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Label)
}

// UnsupportedFamilyError is returned when a family name has no implementation.
type UnsupportedFamilyError struct {
	Name string
}

func (e *UnsupportedFamilyError) Error() string {
	return fmt.Sprintf("unsupported provider family %q", e.Name)
}

// UnimplementedFamilyError is returned when a provider carries no family
// to build or extract with.
type UnimplementedFamilyError struct {
	Label string
}

func (e *UnimplementedFamilyError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("provider %q has no implemented family", e.Label)
	}
	return "provider has no implemented family"
}

// InvalidEndpointError is returned when a family has no usable endpoint URL.
type InvalidEndpointError struct {
	Family   string
	Endpoint string
}

func (e *InvalidEndpointError) Error() string {
	return fmt.Sprintf("%s endpoint %q is not an absolute http(s) URL", e.Family, e.Endpoint)
}

// UnsupportedModelError is returned when a model is not offered by the provider.
type UnsupportedModelError struct {
	Label string
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("model %q is not offered by provider %q", e.Model, e.Label)
}

// MissingCredentialError is returned when no secret is configured for a family.
type MissingCredentialError struct {
	Family string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential for %s", e.Family)
}

// MalformedReplyError is returned when the expected field is absent from a reply.
type MalformedReplyError struct {
	Family string
	Path   string
	Cause  error
}

func (e *MalformedReplyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s reply: %s: %v", e.Family, e.Path, e.Cause)
	}
	return fmt.Sprintf("malformed %s reply: %s not found", e.Family, e.Path)
}

func (e *MalformedReplyError) Unwrap() error { return e.Cause }
