package shopify

const cartFields = `
fragment CartFields on Cart {
  id
  createdAt
  updatedAt
  checkoutUrl
  lines(first: 100) {
    edges {
      node {
        id
        quantity
        merchandise {
          ... on ProductVariant {
            id
            title
            price { amount currencyCode }
            selectedOptions { name value }
            product {
              title
              images(first: 1) {
                edges { node { url(transform: {maxWidth: 200, maxHeight: 200}) altText } }
              }
            }
          }
        }
        attributes { key value }
      }
    }
  }
  cost {
    totalAmount { amount currencyCode }
    subtotalAmount { amount currencyCode }
    totalTaxAmount { amount currencyCode }
  }
}
`

const variantFields = `
fragment VariantFields on ProductVariant {
  id
  title
  price { amount currencyCode }
  availableForSale
  selectedOptions { name value }
}
`

const queryProducts = `
query getProducts($first: Int!) {
  products(first: $first) {
    edges {
      node {
        id
        title
        handle
        description
        images(first: 1) {
          edges { node { url(transform: {maxWidth: 400, maxHeight: 400}) altText } }
        }
        priceRange { minVariantPrice { amount currencyCode } }
        variants(first: 10) { edges { node { ...VariantFields } } }
      }
    }
  }
}
` + variantFields

const queryProductByHandle = `
query getProductByHandle($handle: String!) {
  productByHandle(handle: $handle) {
    id
    title
    handle
    description
    images(first: 5) {
      edges { node { url(transform: {maxWidth: 600, maxHeight: 600}) altText } }
    }
    priceRange { minVariantPrice { amount currencyCode } }
    variants(first: 10) { edges { node { ...VariantFields } } }
    options { id name values }
  }
}
` + variantFields

const queryCollections = `
query getCollections($first: Int!) {
  collections(first: $first) {
    edges {
      node {
        id
        title
        handle
        description
        image { url altText }
      }
    }
  }
}
`

const queryCart = `
query getCart($id: ID!) {
  cart(id: $id) { ...CartFields }
}
` + cartFields

const mutationCartCreate = `
mutation cartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart { ...CartFields }
    userErrors { field message }
  }
}
` + cartFields

const mutationCartLinesAdd = `
mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { ...CartFields }
    userErrors { field message }
  }
}
` + cartFields

const mutationCartLinesUpdate = `
mutation cartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart { ...CartFields }
    userErrors { field message }
  }
}
` + cartFields

const mutationCartLinesRemove = `
mutation cartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { ...CartFields }
    userErrors { field message }
  }
}
` + cartFields
