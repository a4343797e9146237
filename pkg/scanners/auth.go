package scanners

import (
	"github.com/mdscan/mdscan/pkg/inventory"
	"github.com/mdscan/mdscan/pkg/pathstore"
	"github.com/mdscan/mdscan/pkg/source"
)

func init() {
	register("ConnectedApp", scanConnectedApps)
	register("AuthProvider", scanAuthProviders)
	register("NamedCredential", scanNamedCredentials)
	register("ExternalCredential", scanExternalCredentials)
}

// Secrets are only ever tested for presence; their values are never copied.

func scanConnectedApps(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		d := inv.Detail(src, t, m)
		if d.Has("canvasConfig") {
			if err := inc(inv, t, "CanvasApp"); err != nil {
				return err
			}
		}
		if err := flagSecret(inv, t, m, d.Has("oauthConfig.consumerSecret")); err != nil {
			return err
		}
	}
	return nil
}

func scanAuthProviders(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		d := inv.Detail(src, t, m)
		if d.Empty() {
			continue
		}
		if pt := d.String("providerType"); pt != "" {
			if err := inc(inv, t, "providerTypes", pt); err != nil {
				return err
			}
		}
		if err := flagSecret(inv, t, m, d.Has("consumerSecret")); err != nil {
			return err
		}
	}
	return nil
}

func flagSecret(inv *inventory.Inventory, t, member string, present bool) error {
	if !present {
		return nil
	}
	if err := inc(inv, t, "WithConsumerSecret"); err != nil {
		return err
	}
	return setProperty(inv, true, t, member, "hasConsumerSecret")
}

// scanNamedCredentials also links each credential to its auth provider in
// both directions.
func scanNamedCredentials(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		d := inv.Detail(src, t, m)
		if d.Empty() {
			continue
		}
		if p := d.String("protocol"); p != "" {
			if err := inc(inv, t, "protocols", p); err != nil {
				return err
			}
		}
		if d.Has("password") {
			if err := inc(inv, t, "WithPassword"); err != nil {
				return err
			}
		}
		if provider := d.String("authProvider"); provider != "" {
			if err := setProperty(inv, true, t, m, "authProvider", provider); err != nil {
				return err
			}
			if _, err := inv.Properties.Increment(pathstore.Join("AuthProvider", provider, "namedCredentials")); err != nil {
				return err
			}
		}
	}
	return nil
}

func scanExternalCredentials(inv *inventory.Inventory, src source.Source, t string, members []string) error {
	for _, m := range members {
		d := inv.Detail(src, t, m)
		if p := d.String("authenticationProtocol"); p != "" {
			if err := inc(inv, t, "protocols", p); err != nil {
				return err
			}
		}
	}
	return nil
}
